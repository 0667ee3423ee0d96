package game

import (
	mathrand "math/rand"
	"time"
)

// Source supplies uniform draws in [0,1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

func NewSource(seed int64) Source {
	return mathrand.New(mathrand.NewSource(seed))
}

func NewTimeSource() Source {
	return NewSource(time.Now().UnixNano())
}
