package core

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Module represents a self-contained action that can be started and stopped.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager coordinates lifecycle of all registered modules.
type Manager struct {
	modules []Module
	running []Module
	mu      sync.Mutex
	started bool
}

// NewManager creates a new manager with the provided modules.
func NewManager(mods ...Module) *Manager {
	return &Manager{
		modules: mods,
	}
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager: cannot add modules after start")
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Names lists the registered modules in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.modules))
	for _, mod := range m.modules {
		if mod != nil {
			names = append(names, mod.Name())
		}
	}
	return names
}

// Start initializes all modules. If any module fails, previously started modules are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager already started")
	}

	m.running = m.running[:0]
	for _, mod := range m.modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			m.stopRunning(ctx)
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		log.Printf("actions: module %s started", mod.Name())
		m.running = append(m.running, mod)
	}

	m.started = true
	return nil
}

// Stop shuts down the started modules in reverse order.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopRunning(ctx)
	m.started = false
}

func (m *Manager) stopRunning(ctx context.Context) {
	for i := len(m.running) - 1; i >= 0; i-- {
		m.running[i].Stop(ctx)
		log.Printf("actions: module %s stopped", m.running[i].Name())
	}
	m.running = m.running[:0]
}
