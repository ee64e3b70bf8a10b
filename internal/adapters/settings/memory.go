package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// Memory keeps settings in process memory. Used in development and as the
// fallback when no database is reachable.
type Memory struct {
	mu          sync.Mutex
	maxTables   int
	maintenance bool
}

func NewMemory(defaultMaxTables int) (*Memory, error) {
	if defaultMaxTables < MinMaxTables || defaultMaxTables > MaxMaxTables {
		return nil, fmt.Errorf("%w: default max tables %d outside [%d, %d]", domain.ErrInvalidValue, defaultMaxTables, MinMaxTables, MaxMaxTables)
	}
	return &Memory{maxTables: defaultMaxTables}, nil
}

func (m *Memory) MaxTables(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxTables, nil
}

func (m *Memory) SetMaxTables(ctx context.Context, maxTables int) error {
	if maxTables < MinMaxTables || maxTables > MaxMaxTables {
		return fmt.Errorf("%w: max tables %d outside [%d, %d]", domain.ErrInvalidValue, maxTables, MinMaxTables, MaxMaxTables)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxTables = maxTables
	return nil
}

func (m *Memory) MaintenanceEnabled(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maintenance, nil
}

func (m *Memory) SetMaintenance(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintenance = enabled
	return nil
}

var _ Settings = &Memory{}
