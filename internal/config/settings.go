package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"filelocker/paths"
)

// FileModeValue supports "0644" or 420 in JSON
type FileModeValue os.FileMode

// ParseFileMode parses an octal permission string such as "0644" or "600".
func ParseFileMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode '%s': must be octal", s)
	}
	if v > 0o7777 {
		return 0, fmt.Errorf("invalid file mode '%s': out of range", s)
	}
	return os.FileMode(v), nil
}

// UnmarshalJSON implements custom unmarshaling for FileModeValue
func (m *FileModeValue) UnmarshalJSON(data []byte) error {
	// Try octal string first
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		mode, err := ParseFileMode(str)
		if err != nil {
			return err
		}
		*m = FileModeValue(mode)
		return nil
	}

	// Fall back to a plain number
	var n uint32
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("file mode must be an octal string or a number: %w", err)
	}
	if n > 0o7777 {
		return fmt.Errorf("invalid file mode %d: out of range", n)
	}
	*m = FileModeValue(n)
	return nil
}

// MarshalJSON implements custom marshaling for FileModeValue
func (m FileModeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%04o", uint32(m)))
}

// Settings represents the structure of $FILELOCKER_HOME/settings.json
type Settings struct {
	Blocking    *bool          `json:"blocking,omitempty"`
	CreateMode  *FileModeValue `json:"create_mode,omitempty"`
	Debug       *bool          `json:"debug,omitempty"`
	MaxLogFiles *int           `json:"max_log_files,omitempty"`
}

// Validate checks for configuration errors
func (s *Settings) Validate() error {
	if s.MaxLogFiles != nil && *s.MaxLogFiles < 0 {
		return fmt.Errorf("max_log_files must not be negative, got %d", *s.MaxLogFiles)
	}
	return nil
}

// LoadSettings loads settings from $FILELOCKER_HOME/settings.json
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	path := paths.GetSettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	return &settings, nil
}

// SaveSettings saves settings to $FILELOCKER_HOME/settings.json
func SaveSettings(settings *Settings) error {
	path := paths.GetSettingsPath()
	if err := os.MkdirAll(paths.GetHome(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
