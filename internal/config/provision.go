package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provision is the optional zero-touch provisioning file: a preset device
// ID consumed on first boot when the agent holds no stored config.
type Provision struct {
	DeviceID string `yaml:"deviceId"`
}

// LoadProvision reads the provisioning file. A missing file is not an
// error; it simply means the agent waits for operator input.
func LoadProvision(path string) (*Provision, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading provision file: %w", err)
	}

	var p Provision
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing provision file: %w", err)
	}
	if p.DeviceID == "" {
		return nil, fmt.Errorf("provision file %s has no deviceId", path)
	}
	return &p, nil
}
