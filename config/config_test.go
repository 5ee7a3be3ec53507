package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "recstore.jsonc")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	if *cfg.MaxKeyLen != *want.MaxKeyLen {
		t.Errorf("MaxKeyLen = %d, want %d", *cfg.MaxKeyLen, *want.MaxKeyLen)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTemp(t, `{
		// widen keys for this deployment
		"max_key_len": 128,
		"payload_crc_enabled": false,
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg.MaxKeyLen != 128 {
		t.Errorf("MaxKeyLen = %d, want 128", *cfg.MaxKeyLen)
	}
	if *cfg.PayloadCrcEnabled {
		t.Error("PayloadCrcEnabled = true, want false")
	}
	if *cfg.PreallocatedSlots != *Defaults().PreallocatedSlots {
		t.Errorf("PreallocatedSlots = %d, want default %d", *cfg.PreallocatedSlots, *Defaults().PreallocatedSlots)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := writeTemp(t, `{ not json `)
	if _, err := Load(path); err == nil {
		t.Error("Load with malformed JSONC: want error, got nil")
	}
}

func TestToOptions(t *testing.T) {
	cfg, err := Load(writeTemp(t, `{"max_key_len": 32, "preallocated_slots": 4}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.ToOptions()
	if opts.MaxKeyLen != 32 {
		t.Errorf("Options.MaxKeyLen = %d, want 32", opts.MaxKeyLen)
	}
	if opts.PreallocatedSlots != 4 {
		t.Errorf("Options.PreallocatedSlots = %d, want 4", opts.PreallocatedSlots)
	}
}
