package converter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fudemap/fudemap/pkg/projection"
)

// Config is the YAML run manifest, an alternative to passing everything as
// CLI flags.
type Config struct {
	Input            string `yaml:"Input"`
	Output           string `yaml:"Output"`
	Workers          int    `yaml:"Workers"`
	Zone             int    `yaml:"Zone"`
	KeepArbitraryCRS bool   `yaml:"KeepArbitraryCRS"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: Input is required")
	}
	if c.Output == "" {
		return fmt.Errorf("config: Output is required")
	}
	if c.Zone != 0 {
		if _, err := projection.ZoneEPSG(c.Zone); err != nil {
			return err
		}
	}
	return nil
}
