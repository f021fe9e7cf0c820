package device

import (
	"context"
	"sync"
)

// MockProvider is an in-memory Provider for tests and dry runs.
type MockProvider struct {
	mu      sync.Mutex
	devices []Descriptor
	err     error
	calls   int
	block   chan struct{}
}

// NewMockProvider creates a MockProvider returning the given devices.
func NewMockProvider(devices ...Descriptor) *MockProvider {
	return &MockProvider{devices: devices}
}

// ListDevices returns a copy of the configured devices or the configured error.
func (m *MockProvider) ListDevices(ctx context.Context) ([]Descriptor, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Descriptor, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

// SetDevices replaces the attached device list.
func (m *MockProvider) SetDevices(devices ...Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

// SetError makes subsequent ListDevices calls fail with err (nil clears it).
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes ListDevices wait until the returned function is called.
func (m *MockProvider) Block() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.block = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.block = nil
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Calls reports how many times ListDevices was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
