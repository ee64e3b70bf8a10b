package settings

import "context"

// MaxTables bounds apply in every implementation.
const (
	MinMaxTables = 1
	MaxMaxTables = 200
)

// Settings holds the operator-tunable runtime configuration: the table
// capacity and the maintenance flag.
type Settings interface {
	MaxTables(ctx context.Context) (int, error)
	SetMaxTables(ctx context.Context, maxTables int) error
	MaintenanceEnabled(ctx context.Context) (bool, error)
	SetMaintenance(ctx context.Context, enabled bool) error
}
