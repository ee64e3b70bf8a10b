package recordstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/strutils"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("gunslinger/recordstore/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

type dbPlayer struct {
	PlayerID      string     `db:"player_id"`
	Name          string     `db:"name"`
	Wins          int        `db:"wins"`
	Losses        int        `db:"losses"`
	MatchesPlayed int        `db:"matches_played"`
	Status        string     `db:"status"`
	LastMatchAt   *time.Time `db:"last_match_at"`
}

type dbMatch struct {
	ID          int64     `db:"id"`
	TableNumber int       `db:"table_number"`
	WinnerID    string    `db:"winner_id"`
	WinnerName  string    `db:"winner_name"`
	LoserID     string    `db:"loser_id"`
	LoserName   string    `db:"loser_name"`
	CompletedAt time.Time `db:"completed_at"`
	DurationMS  int64     `db:"duration_ms"`
	Corrected   bool      `db:"corrected"`
}

type dbActiveTable struct {
	TableNumber int       `db:"table_number"`
	Player1ID   string    `db:"player1_id"`
	Player1Name string    `db:"player1_name"`
	Player2ID   string    `db:"player2_id"`
	Player2Name string    `db:"player2_name"`
	StartedAt   time.Time `db:"started_at"`
}

func dbPlayerToDomain(row dbPlayer) (domain.Player, error) {
	status := domain.PlayerStatus(row.Status)
	if !status.Valid() {
		return domain.Player{}, fmt.Errorf("%w: player %s has unknown status %q", domain.ErrStructural, row.PlayerID, row.Status)
	}
	return domain.Player{
		ID:            row.PlayerID,
		Name:          row.Name,
		Wins:          row.Wins,
		Losses:        row.Losses,
		MatchesPlayed: row.MatchesPlayed,
		Status:        status,
		LastMatchAt:   row.LastMatchAt,
	}, nil
}

func dbMatchToDomain(row dbMatch) domain.MatchRecord {
	return domain.MatchRecord{
		ID:          row.ID,
		TableNumber: row.TableNumber,
		WinnerID:    row.WinnerID,
		WinnerName:  row.WinnerName,
		LoserID:     row.LoserID,
		LoserName:   row.LoserName,
		CompletedAt: row.CompletedAt,
		Duration:    time.Duration(row.DurationMS) * time.Millisecond,
		Corrected:   row.Corrected,
	}
}

func dbActiveTableToDomain(row dbActiveTable) domain.TableSlot {
	return domain.TableSlot{
		Number:      row.TableNumber,
		Player1ID:   row.Player1ID,
		Player1Name: row.Player1Name,
		Player2ID:   row.Player2ID,
		Player2Name: row.Player2Name,
		StartedAt:   row.StartedAt,
	}
}

// expectedColumns is the structural contract per table. ValidateSchema fails
// fast on mismatch so a half-migrated database is caught at startup rather
// than mid-tournament.
var expectedColumns = map[string][]string{
	"players":       {"player_id", "name", "wins", "losses", "matches_played", "status", "last_match_at", "registered_at"},
	"matches":       {"id", "table_number", "winner_id", "winner_name", "loser_id", "loser_name", "completed_at", "duration_ms", "corrected"},
	"active_tables": {"table_number", "player1_id", "player1_name", "player2_id", "player2_name", "started_at"},
	"corrections":   {"id", "match_id", "corrected_at"},
}

func (p *Postgres) ValidateSchema(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.ValidateSchema")
	defer span.End()

	for table, columns := range expectedColumns {
		var names []string
		err := p.db.SelectContext(
			ctx,
			&names,
			`SELECT column_name FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2`,
			p.schema,
			table,
		)
		if err != nil {
			err := fmt.Errorf("failed to read column metadata for %s: %w", table, err)
			reporting.Report(ctx, err, map[string]string{
				"schema": p.schema,
				"table":  table,
			})
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("%w: table %s.%s does not exist", domain.ErrStructural, p.schema, table)
		}

		present := make(map[string]bool, len(names))
		for _, name := range names {
			present[name] = true
		}
		for _, column := range columns {
			if !present[column] {
				return fmt.Errorf("%w: table %s.%s is missing column %s", domain.ErrStructural, p.schema, table, column)
			}
		}
	}

	return nil
}

func (p *Postgres) AppendPlayer(ctx context.Context, player domain.Player) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.AppendPlayer")
	defer span.End()

	if !strutils.PlayerIDIsNormalized(player.ID) {
		err := fmt.Errorf("player id is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerId": player.ID,
		})
		return err
	}

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.players
		(player_id, name, wins, losses, matches_played, status, last_match_at, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			pq.QuoteIdentifier(p.schema)),
		player.ID,
		player.Name,
		player.Wins,
		player.Losses,
		player.MatchesPlayed,
		string(player.Status),
		player.LastMatchAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerId": player.ID,
		})
		return err
	}

	return nil
}

func (p *Postgres) UpdatePlayer(ctx context.Context, player domain.Player) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdatePlayer")
	defer span.End()

	result, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s.players SET
			name = $2,
			wins = $3,
			losses = $4,
			matches_played = $5,
			status = $6,
			last_match_at = $7
		WHERE player_id = $1`,
			pq.QuoteIdentifier(p.schema)),
		player.ID,
		player.Name,
		player.Wins,
		player.Losses,
		player.MatchesPlayed,
		string(player.Status),
		player.LastMatchAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to update player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerId": player.ID,
		})
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to read rows affected: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerId": player.ID,
		})
		return err
	}
	if rows == 0 {
		err := fmt.Errorf("update player: %w: %s", domain.ErrPlayerNotFound, player.ID)
		reporting.Report(ctx, err, map[string]string{
			"playerId": player.ID,
		})
		return err
	}

	return nil
}

func (p *Postgres) AppendMatch(ctx context.Context, record domain.MatchRecord) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.AppendMatch")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.matches
		(id, table_number, winner_id, winner_name, loser_id, loser_name, completed_at, duration_ms, corrected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pq.QuoteIdentifier(p.schema)),
		record.ID,
		record.TableNumber,
		record.WinnerID,
		record.WinnerName,
		record.LoserID,
		record.LoserName,
		record.CompletedAt,
		record.Duration.Milliseconds(),
		record.Corrected,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert match: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId":  fmt.Sprint(record.ID),
			"winnerId": record.WinnerID,
			"loserId":  record.LoserID,
		})
		return err
	}

	return nil
}

func (p *Postgres) UpdateMatch(ctx context.Context, record domain.MatchRecord) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdateMatch")
	defer span.End()

	result, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s.matches SET
			winner_id = $2,
			winner_name = $3,
			loser_id = $4,
			loser_name = $5,
			corrected = $6
		WHERE id = $1`,
			pq.QuoteIdentifier(p.schema)),
		record.ID,
		record.WinnerID,
		record.WinnerName,
		record.LoserID,
		record.LoserName,
		record.Corrected,
	)
	if err != nil {
		err := fmt.Errorf("failed to update match: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": fmt.Sprint(record.ID),
		})
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to read rows affected: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": fmt.Sprint(record.ID),
		})
		return err
	}
	if rows == 0 {
		err := fmt.Errorf("update match: %w: %d", domain.ErrMatchNotFound, record.ID)
		reporting.Report(ctx, err, map[string]string{
			"matchId": fmt.Sprint(record.ID),
		})
		return err
	}

	return nil
}

func (p *Postgres) AppendCorrection(ctx context.Context, matchID int64, correctedAt time.Time) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.AppendCorrection")
	defer span.End()

	dbID, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate correction id: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": fmt.Sprint(matchID),
		})
		return err
	}

	_, err = p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.corrections
		(id, match_id, corrected_at)
		VALUES ($1, $2, $3)`,
			pq.QuoteIdentifier(p.schema)),
		dbID.String(),
		matchID,
		correctedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert correction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchId": fmt.Sprint(matchID),
		})
		return err
	}

	return nil
}

func (p *Postgres) UpsertActiveTable(ctx context.Context, slot domain.TableSlot) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpsertActiveTable")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.active_tables
		(table_number, player1_id, player1_name, player2_id, player2_name, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (table_number)
		DO UPDATE SET
			player1_id = EXCLUDED.player1_id,
			player1_name = EXCLUDED.player1_name,
			player2_id = EXCLUDED.player2_id,
			player2_name = EXCLUDED.player2_name,
			started_at = EXCLUDED.started_at`,
			pq.QuoteIdentifier(p.schema)),
		slot.Number,
		slot.Player1ID,
		slot.Player1Name,
		slot.Player2ID,
		slot.Player2Name,
		slot.StartedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert active table: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"tableNumber": fmt.Sprint(slot.Number),
		})
		return err
	}

	return nil
}

func (p *Postgres) ClearActiveTable(ctx context.Context, tableNumber int) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.ClearActiveTable")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf("DELETE FROM %s.active_tables WHERE table_number = $1",
			pq.QuoteIdentifier(p.schema)),
		tableNumber,
	)
	if err != nil {
		err := fmt.Errorf("failed to clear active table: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"tableNumber": fmt.Sprint(tableNumber),
		})
		return err
	}

	return nil
}

func (p *Postgres) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListPlayers")
	defer span.End()

	var rows []dbPlayer
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT player_id, name, wins, losses, matches_played, status, last_match_at
		FROM %s.players
		ORDER BY registered_at ASC, player_id ASC`,
			pq.QuoteIdentifier(p.schema)),
	)
	if err != nil {
		err := fmt.Errorf("failed to list players: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	players := make([]domain.Player, 0, len(rows))
	for _, row := range rows {
		player, err := dbPlayerToDomain(row)
		if err != nil {
			reporting.Report(ctx, err, map[string]string{
				"playerId": row.PlayerID,
			})
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

func (p *Postgres) ListMatches(ctx context.Context) ([]domain.MatchRecord, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListMatches")
	defer span.End()

	var rows []dbMatch
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT id, table_number, winner_id, winner_name, loser_id, loser_name, completed_at, duration_ms, corrected
		FROM %s.matches
		ORDER BY id ASC`,
			pq.QuoteIdentifier(p.schema)),
	)
	if err != nil {
		err := fmt.Errorf("failed to list matches: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	records := make([]domain.MatchRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, dbMatchToDomain(row))
	}
	return records, nil
}

func (p *Postgres) ListActiveTables(ctx context.Context) ([]domain.TableSlot, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListActiveTables")
	defer span.End()

	var rows []dbActiveTable
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT table_number, player1_id, player1_name, player2_id, player2_name, started_at
		FROM %s.active_tables
		ORDER BY table_number ASC`,
			pq.QuoteIdentifier(p.schema)),
	)
	if err != nil {
		err := fmt.Errorf("failed to list active tables: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	slots := make([]domain.TableSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, dbActiveTableToDomain(row))
	}
	return slots, nil
}

var _ Store = &Postgres{}
