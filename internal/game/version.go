package game

import (
	"fmt"
	"strconv"
	"strings"
)

// IncrementVersion bumps the patch number, carrying into minor and major at 10.
func IncrementVersion(v string) string {
	parts := strings.Split(strings.TrimSpace(v), ".")
	nums := [3]int{}
	for i := 0; i < len(nums) && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err == nil && n >= 0 {
			nums[i] = n
		}
	}
	major, minor, patch := nums[0], nums[1], nums[2]+1
	if patch >= 10 {
		patch = 0
		minor++
	}
	if minor >= 10 {
		minor = 0
		major++
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
