package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"filelocker/internal/config"
	"filelocker/paths"
)

// SettingsCmd manages settings
type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"show" help:"Show the settings file location and current values" default:"1"`
	Set  SettingsSetCmd  `cmd:"set" help:"Change a setting"`
}

// SettingsShowCmd displays current settings
type SettingsShowCmd struct{}

// Run executes the show command
func (s *SettingsShowCmd) Run(cli *CLI) error {
	settings := cli.settings
	if settings == nil {
		settings = &config.Settings{}
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	fmt.Fprintf(cli.out(), "Settings file: %s\n\n", paths.GetSettingsPath())
	fmt.Fprintln(cli.out(), string(data))
	return nil
}

// SettingsSetCmd updates one setting in settings.json
type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting name" enum:"blocking,create_mode,debug,max_log_files"`
	Value string `arg:"" help:"New value"`
}

// Run executes the set command
func (s *SettingsSetCmd) Run(cli *CLI) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	switch s.Key {
	case "blocking", "debug":
		v, err := strconv.ParseBool(s.Value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", s.Key)
		}
		if s.Key == "blocking" {
			settings.Blocking = &v
		} else {
			settings.Debug = &v
		}
	case "create_mode":
		mode, err := config.ParseFileMode(s.Value)
		if err != nil {
			return err
		}
		m := config.FileModeValue(mode)
		settings.CreateMode = &m
	case "max_log_files":
		n, err := strconv.Atoi(s.Value)
		if err != nil {
			return fmt.Errorf("max_log_files must be a number")
		}
		settings.MaxLogFiles = &n
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if err := config.SaveSettings(settings); err != nil {
		return err
	}

	cli.SetSettings(settings)
	fmt.Fprintf(cli.out(), "Set %s = %s\n", s.Key, s.Value)
	return nil
}
