package frameble

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes the GATT layout and backend quirks of a Frame device.
// The zero value is not usable; start from DefaultProfile or LoadProfile.
type Profile struct {
	ServiceUUID string `yaml:"service_uuid"`
	TxCharUUID  string `yaml:"tx_char_uuid"`
	RxCharUUID  string `yaml:"rx_char_uuid"`
	Quirks      Quirks `yaml:"quirks"`
}

// Quirks holds per-backend workaround flags selected at connect time, so
// platform differences stay out of the call sites.
type Quirks struct {
	// RefreshMTU re-reads the MTU after the link settles, for backends
	// that report a stale, too-small value right after connecting.
	RefreshMTU bool `yaml:"refresh_mtu"`
}

// DefaultProfile returns the standard Frame GATT profile with no quirks.
func DefaultProfile() Profile {
	return Profile{
		ServiceUUID: ServiceUUID,
		TxCharUUID:  TxCharUUID,
		RxCharUUID:  RxCharUUID,
	}
}

// LoadProfile reads a YAML profile file. Missing fields are filled with
// defaults, so a profile file only needs to state its overrides.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile file: %w", err)
	}

	p := DefaultProfile()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile file: %w", err)
	}
	return p, nil
}

// Validate checks the profile for missing values.
func (p Profile) Validate() error {
	if p.ServiceUUID == "" {
		return fmt.Errorf("service_uuid must not be empty")
	}
	if p.TxCharUUID == "" {
		return fmt.Errorf("tx_char_uuid must not be empty")
	}
	if p.RxCharUUID == "" {
		return fmt.Errorf("rx_char_uuid must not be empty")
	}
	return nil
}
