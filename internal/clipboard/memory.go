package clipboard

import "sync"

// Memory is an in-memory Clipboard for tests.
type Memory struct {
	mu      sync.Mutex
	content string
}

// NewMemory creates an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = value
	return nil
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content, nil
}
