package store

import (
	"fmt"

	"github.com/RMHEDGE/screens-native/internal/models"
)

// Persisted keys. Absence of either is treated as no stored config.
const (
	keyConfig   = "config"
	keyDeviceID = "deviceId"
)

// ConfigStore persists the last-known (display tree, device ID) pair.
type ConfigStore struct {
	kv KV
}

// NewConfigStore wraps a KV in the config persistence contract.
func NewConfigStore(kv KV) *ConfigStore {
	return &ConfigStore{kv: kv}
}

// Load returns the stored pair. It fails soft: any missing key, read error
// or parse failure yields ok=false, never an error. Absence of valid local
// config is what sends the agent to the needs-input phase; it is never
// fatal.
func (s *ConfigStore) Load() (tree models.DisplayNode, deviceID string, ok bool) {
	doc, present, err := s.kv.Get(keyConfig)
	if err != nil || !present {
		return nil, "", false
	}
	deviceID, present, err = s.kv.Get(keyDeviceID)
	if err != nil || !present {
		return nil, "", false
	}

	tree, err = models.ParseDisplayNode([]byte(doc))
	if err != nil {
		fmt.Printf("[Store] Stored config is invalid, discarding: %v\n", err)
		return nil, "", false
	}
	return tree, deviceID, true
}

// Save persists the pair. Failures are returned so callers can surface
// them, but a failed save never interrupts rendering.
func (s *ConfigStore) Save(tree models.DisplayNode, deviceID string) error {
	doc, err := models.EncodeDisplayNode(tree)
	if err != nil {
		return err
	}
	if err := s.kv.Set(keyConfig, doc); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := s.kv.Set(keyDeviceID, deviceID); err != nil {
		return fmt.Errorf("saving device ID: %w", err)
	}
	return nil
}
