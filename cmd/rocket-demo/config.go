package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Address     string
		BPM         float64
		RowsPerBeat int
		SavePath    string
		Tracks      TrackNames
		YmlError    error
	}

	// TrackNames maps the tone's parameters to track names, so the same
	// demo can be driven from differently named tracker projects.
	TrackNames struct {
		Note   string
		Gain   string
		Pan    string
		Detune string
	}
)

//go:embed demo.yml
var defaultConfigYaml []byte

func loadDefaultConfig() Config {
	var config Config
	err := yaml.UnmarshalStrict(defaultConfigYaml, &config)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal the builtin configuration: %w", err))
	}
	return config
}

// readCustomConfigYml modifies the target argument, i.e. needs a pointer
func readCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "rocket", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.Unmarshal(bytes, target)
	return true, err
}

func makeConfig() Config {
	config := loadDefaultConfig()
	exists, err := readCustomConfigYml("demo.yml", &config)
	if exists {
		config.YmlError = err
	}
	return config
}
