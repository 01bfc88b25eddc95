package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	appDir       = "mangawatch"
	DefaultLabel = "Default"
)

var ErrNoConfig = errors.New("no config selected")

// Root is the per-user config directory of the application.
func Root() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}

	return filepath.Join(dir, appDir)
}

func ConfigsDir() string {
	return filepath.Join(Root(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(Root(), "current_config")
}

func PathByLabel(label string) string {
	return filepath.Join(ConfigsDir(), label+".yaml")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0o755)
}

func checkLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("label %q cannot contain path separators", label)
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}

	return label, nil
}

// ActiveConfigPath returns the file of the active profile, or ErrNoConfig
// when none is selected or the selected one is gone.
func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}

	path := PathByLabel(label)
	if !exists(path) {
		return "", fmt.Errorf("config %q: %w", label, ErrNoConfig)
	}

	return path, nil
}

type Profile struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]Profile, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()

	var out []Profile
	for _, e := range entries {
		label, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok {
			continue
		}

		out = append(out, Profile{Label: label, Path: PathByLabel(label), Active: label == active})
	}

	slices.SortFunc(out, func(a, b Profile) int { return strings.Compare(a.Label, b.Label) })

	return out, nil
}

func SwitchConfig(label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	if !exists(PathByLabel(label)) {
		return fmt.Errorf("config %q does not exist", label)
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0o644)
}

// CreateConfig writes a profile with default values.
func CreateConfig(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := PathByLabel(label)
	if exists(path) {
		return path, fmt.Errorf("config %q already exists", label)
	}

	return path, SaveYAML(DefaultConfig(), path)
}

// InitDefaultConfig creates the Default profile if needed and activates it.
// It returns os.ErrExist when the profile was already there.
func InitDefaultConfig() (string, error) {
	path, err := CreateConfig(DefaultLabel)
	if err != nil && !exists(path) {
		return "", err
	}

	if serr := SwitchConfig(DefaultLabel); serr != nil {
		return path, serr
	}
	if err != nil {
		return path, os.ErrExist
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	if err := checkLabel(newLabel); err != nil {
		return err
	}

	oldPath, newPath := PathByLabel(oldLabel), PathByLabel(newLabel)
	if !exists(oldPath) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if exists(newPath) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0o644)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active one falls back to
// Default; Default itself cannot be removed.
func RemoveConfig(label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	if label == DefaultLabel {
		return errors.New("cannot remove the Default config")
	}

	path := PathByLabel(label)
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if _, err := InitDefaultConfig(); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed switching to Default: %w", err)
		}
	}

	return os.Remove(path)
}
