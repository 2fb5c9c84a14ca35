package api

import (
	"errors"
	"net/url"
	"strings"
)

// FlasherConfig defines a struct to hold the flasher configuration.
type FlasherConfig struct {
	Release FlasherReleaseConfig `json:"release" yaml:"release"`
	Storage FlasherStorageConfig `json:"storage" yaml:"storage"`
	Tool    FlasherToolConfig    `json:"tool"    yaml:"tool"`
}

// FlasherReleaseConfig defines where firmware releases are published.
type FlasherReleaseConfig struct {
	Owner      string `json:"owner"              yaml:"owner"`
	Repository string `json:"repository"         yaml:"repository"`
	APIURL     string `json:"api_url,omitempty"  yaml:"api_url,omitempty"`
	Retries    uint64 `json:"retries"            yaml:"retries"`
}

// FlasherStorageConfig defines the on-disk locations used by the flasher.
type FlasherStorageConfig struct {
	CacheDirectory  string `json:"cache_directory"  yaml:"cache_directory"`
	ImagesDirectory string `json:"images_directory" yaml:"images_directory"`
}

// FlasherToolConfig defines how the external flashing tool is invoked.
// Command may contain several words, for example "python3 -m esptool".
type FlasherToolConfig struct {
	Command string `json:"command" yaml:"command"`
}

// DefaultFlasherConfig returns the configuration used when no configuration file exists.
func DefaultFlasherConfig() FlasherConfig {
	return FlasherConfig{
		Release: FlasherReleaseConfig{
			Owner:      "CatDevCode",
			Repository: "CatOs",
			Retries:    3,
		},
		Storage: FlasherStorageConfig{
			CacheDirectory:  "firmware",
			ImagesDirectory: "flash",
		},
		Tool: FlasherToolConfig{
			Command: "esptool.py",
		},
	}
}

// Validate performs basic sanity checks against the flasher configuration.
func (c *FlasherConfig) Validate() error {
	if c.Release.Owner == "" || c.Release.Repository == "" {
		return errors.New("release owner and repository must be provided")
	}

	if strings.ContainsAny(c.Release.Owner+c.Release.Repository, "/ ") {
		return errors.New("invalid release repository '" + c.Release.Owner + "/" + c.Release.Repository + "'")
	}

	if c.Release.APIURL != "" {
		u, err := url.Parse(c.Release.APIURL)
		if err != nil {
			return errors.New("invalid release API URL: " + err.Error())
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("invalid release API URL scheme '" + u.Scheme + "'")
		}
	}

	if c.Storage.CacheDirectory == "" {
		return errors.New("a cache directory must be provided")
	}

	if c.Storage.ImagesDirectory == "" {
		return errors.New("an images directory must be provided")
	}

	if len(strings.Fields(c.Tool.Command)) == 0 {
		return errors.New("a flashing tool command must be provided")
	}

	return nil
}

// ToolCommand splits the configured tool command into the executable and its leading arguments.
func (c *FlasherToolConfig) ToolCommand() (string, []string) {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		return "", nil
	}

	return fields[0], fields[1:]
}
