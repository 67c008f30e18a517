// Package session holds the key/value items identifying the connected user.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/zombor/billed/internal/bill"
)

// Memory is an in-memory session store
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory creates an empty Memory session
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// GetItem returns the value stored under key, or "" when absent
func (m *Memory) GetItem(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[key]
}

// SetItem stores a value under key
func (m *Memory) SetItem(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

// RemoveItem deletes key
func (m *Memory) RemoveItem(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Clear removes every item
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
}

// SetUser stores u as the connected user
func (m *Memory) SetUser(u bill.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}
	m.SetItem(bill.UserKey, string(data))
	return nil
}

// LoadFile reads a session from a JSON file. String values are stored as-is,
// any other value is stored as its JSON encoding, so {"user": {"email": "a@a"}} works.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling session file: %w", err)
	}

	m := NewMemory()
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			m.SetItem(key, s)
			continue
		}
		m.SetItem(key, string(value))
	}
	return m, nil
}
