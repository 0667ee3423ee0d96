package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoProfile = errors.New("no remote game linked; run `bankceo remote create` first")

// Profile links the local CLI to one game hosted by the API.
type Profile struct {
	BaseURL string `json:"base_url"`
	GameID  string `json:"game_id"`
	Token   string `json:"token"`
}

func profilePath(dir string) string {
	return filepath.Join(dir, "remote.json")
}

func SaveProfile(dir string, p Profile) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(profilePath(dir), body, 0o600)
}

func LoadProfile(dir string) (Profile, error) {
	body, err := os.ReadFile(profilePath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, ErrNoProfile
		}
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(p.GameID) == "" || strings.TrimSpace(p.Token) == "" {
		return Profile{}, ErrNoProfile
	}
	return p, nil
}

func ClearProfile(dir string) error {
	err := os.Remove(profilePath(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
