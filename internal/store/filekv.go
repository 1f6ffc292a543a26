// Package store persists the agent's last-known display configuration
// through a simple string key-value store.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// KV is a string key-value store. Get reports presence separately from
// errors so callers can distinguish "missing" from "broken".
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// FileKV implements KV with an in-memory map snapshotted to a single
// msgpack file. Writes are atomic via rename.
type FileKV struct {
	mu   sync.RWMutex
	path string
	data map[string]string
}

// NewFileKV creates a FileKV under dataDir. A missing or unreadable
// snapshot starts the store empty rather than failing: local state is
// always recoverable by re-provisioning the device.
func NewFileKV(dataDir string) (*FileKV, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	kv := &FileKV{
		path: filepath.Join(dataDir, "state.msgpack"),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(kv.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("[Store] Failed to read snapshot, starting empty: %v\n", err)
		}
		return kv, nil
	}
	if err := msgpack.Unmarshal(raw, &kv.data); err != nil {
		fmt.Printf("[Store] Corrupt snapshot, starting empty: %v\n", err)
		kv.data = make(map[string]string)
	}
	return kv, nil
}

// Get returns the value for key and whether it is present.
func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	value, ok := kv.data[key]
	return value, ok, nil
}

// Set stores value under key and persists the snapshot.
func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.data[key] = value

	raw, err := msgpack.Marshal(kv.data)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	tmp := kv.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, kv.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
