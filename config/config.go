// Package config loads recstore.Options from a HuJSON (JSON-with-
// comments) file, following the same standardize-then-unmarshal
// approach used elsewhere in this ecosystem for developer-facing
// config files.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/jlah/recstore"
)

// FileConfig is the on-disk shape of a store config file. Fields left
// unset fall back to Defaults().
type FileConfig struct {
	MaxKeyLen         *uint8 `json:"max_key_len,omitempty"`
	PreallocatedSlots *int   `json:"preallocated_slots,omitempty"`
	PayloadCrcEnabled *bool  `json:"payload_crc_enabled,omitempty"`
}

// Defaults returns the configuration used when no file is present and
// no field was overridden.
func Defaults() FileConfig {
	maxKeyLen := uint8(64)
	slots := 16
	crc := true
	return FileConfig{
		MaxKeyLen:         &maxKeyLen,
		PreallocatedSlots: &slots,
		PayloadCrcEnabled: &crc,
	}
}

// Load reads and parses a HuJSON config file at path, merging it over
// Defaults(). A missing file is not an error: Defaults() is returned
// unchanged.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return FileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return FileConfig{}, fmt.Errorf("config: invalid JSONC in %s: %w", path, err)
	}

	var fileCfg FileConfig
	if err := json.Unmarshal(standardized, &fileCfg); err != nil {
		return FileConfig{}, fmt.Errorf("config: invalid JSON in %s: %w", path, err)
	}

	merge(&cfg, fileCfg)
	return cfg, nil
}

func merge(base *FileConfig, overlay FileConfig) {
	if overlay.MaxKeyLen != nil {
		base.MaxKeyLen = overlay.MaxKeyLen
	}
	if overlay.PreallocatedSlots != nil {
		base.PreallocatedSlots = overlay.PreallocatedSlots
	}
	if overlay.PayloadCrcEnabled != nil {
		base.PayloadCrcEnabled = overlay.PayloadCrcEnabled
	}
}

// ToOptions converts a fully-resolved FileConfig into recstore.Options.
// The caller is still responsible for setting Options.Logger.
func (c FileConfig) ToOptions() recstore.Options {
	return recstore.Options{
		MaxKeyLen:         *c.MaxKeyLen,
		PreallocatedSlots: *c.PreallocatedSlots,
		PayloadCrcEnabled: *c.PayloadCrcEnabled,
	}
}
