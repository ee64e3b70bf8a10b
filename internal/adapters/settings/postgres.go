package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/reporting"
)

const (
	maxTablesKey   = "max_tables"
	maintenanceKey = "maintenance"
)

// Postgres stores settings as key/value rows so changes survive a restart.
// Missing keys fall back to the configured defaults.
type Postgres struct {
	db     *sqlx.DB
	schema string

	defaultMaxTables int

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string, defaultMaxTables int) (*Postgres, error) {
	if defaultMaxTables < MinMaxTables || defaultMaxTables > MaxMaxTables {
		return nil, fmt.Errorf("%w: default max tables %d outside [%d, %d]", domain.ErrInvalidValue, defaultMaxTables, MinMaxTables, MaxMaxTables)
	}

	tracer := otel.Tracer("gunslinger/settings/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		defaultMaxTables: defaultMaxTables,

		tracer: tracer,
	}, nil
}

func (p *Postgres) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT value FROM %s.settings WHERE key = $1", pq.QuoteIdentifier(p.schema)),
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to read setting: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key": key,
		})
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.settings
		(key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value`,
			pq.QuoteIdentifier(p.schema)),
		key,
		value,
	)
	if err != nil {
		err := fmt.Errorf("failed to write setting: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"key":   key,
			"value": value,
		})
		return err
	}
	return nil
}

func (p *Postgres) MaxTables(ctx context.Context) (int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.MaxTables")
	defer span.End()

	value, found, err := p.get(ctx, maxTablesKey)
	if err != nil {
		return 0, err
	}
	if !found {
		return p.defaultMaxTables, nil
	}

	maxTables, err := strconv.Atoi(value)
	if err != nil {
		err := fmt.Errorf("%w: stored max tables %q is not a number", domain.ErrStructural, value)
		reporting.Report(ctx, err)
		return 0, err
	}
	if maxTables < MinMaxTables || maxTables > MaxMaxTables {
		err := fmt.Errorf("%w: stored max tables %d outside [%d, %d]", domain.ErrStructural, maxTables, MinMaxTables, MaxMaxTables)
		reporting.Report(ctx, err)
		return 0, err
	}
	return maxTables, nil
}

func (p *Postgres) SetMaxTables(ctx context.Context, maxTables int) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SetMaxTables")
	defer span.End()

	if maxTables < MinMaxTables || maxTables > MaxMaxTables {
		return fmt.Errorf("%w: max tables %d outside [%d, %d]", domain.ErrInvalidValue, maxTables, MinMaxTables, MaxMaxTables)
	}
	return p.set(ctx, maxTablesKey, strconv.Itoa(maxTables))
}

func (p *Postgres) MaintenanceEnabled(ctx context.Context) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.MaintenanceEnabled")
	defer span.End()

	value, found, err := p.get(ctx, maintenanceKey)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		err := fmt.Errorf("%w: stored maintenance flag %q is not a boolean", domain.ErrStructural, value)
		reporting.Report(ctx, err)
		return false, err
	}
	return enabled, nil
}

func (p *Postgres) SetMaintenance(ctx context.Context, enabled bool) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.SetMaintenance")
	defer span.End()

	return p.set(ctx, maintenanceKey, strconv.FormatBool(enabled))
}

var _ Settings = &Postgres{}
