// Package config loads the flasher configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/catdevcode/catos-flasher/api"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "catos-flasher.yaml"

// Load parses the configuration file at path on top of the defaults.
// A missing file yields the default configuration.
func Load(path string) (*api.FlasherConfig, error) {
	cfg := api.DefaultFlasherConfig()

	// #nosec G304
	body, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}

		return &cfg, nil
	}

	err = Decode(body, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	return &cfg, nil
}

// Decode parses YAML into cfg and validates the result. Unknown keys are rejected.
func Decode(body []byte, cfg *api.FlasherConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(body))
	decoder.KnownFields(true)

	err := decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return cfg.Validate()
}

// Encode renders cfg as YAML.
func Encode(cfg *api.FlasherConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
