package fund

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FAASentinel/internal/model"
)

// LoadState reads preferences from a JSON file. Returns zero preferences if the file doesn't exist.
func LoadState(filePath string) (*model.Preferences, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Preferences{}, nil
		}
		return nil, err
	}
	var prefs model.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// SaveState writes preferences to a JSON file, creating the parent directory if needed.
func SaveState(filePath string, prefs *model.Preferences) error {
	prefs.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	// replace atomically
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
