package app

import (
	"context"
)

type adminCore interface {
	SetMaxTables(ctx context.Context, maxTables int) error
	SetMaintenance(ctx context.Context, enabled bool) error
}

type SetMaxTables func(ctx context.Context, maxTables int) error

type SetMaintenance func(ctx context.Context, enabled bool) error

func BuildSetMaxTables(core adminCore) SetMaxTables {
	return func(ctx context.Context, maxTables int) error {
		return core.SetMaxTables(ctx, maxTables)
	}
}

func BuildSetMaintenance(core adminCore) SetMaintenance {
	return func(ctx context.Context, enabled bool) error {
		return core.SetMaintenance(ctx, enabled)
	}
}
