package tournament

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/strutils"
)

// RecordStore is the persistence collaborator. The core writes through to it
// after committing an in-memory transaction; implementations handle their own
// error reporting.
type RecordStore interface {
	AppendPlayer(ctx context.Context, player domain.Player) error
	UpdatePlayer(ctx context.Context, player domain.Player) error
	AppendMatch(ctx context.Context, record domain.MatchRecord) error
	UpdateMatch(ctx context.Context, record domain.MatchRecord) error
	AppendCorrection(ctx context.Context, matchID int64, correctedAt time.Time) error
	UpsertActiveTable(ctx context.Context, slot domain.TableSlot) error
	ClearActiveTable(ctx context.Context, tableNumber int) error
}

// Settings is the configuration collaborator: the bounded max-table count and
// the maintenance flag.
type Settings interface {
	MaxTables(ctx context.Context) (int, error)
	SetMaxTables(ctx context.Context, maxTables int) error
	MaintenanceEnabled(ctx context.Context) (bool, error)
	SetMaintenance(ctx context.Context, enabled bool) error
}

// ActiveTable is the display snapshot of one occupied table.
type ActiveTable struct {
	domain.TableSlot
	Elapsed time.Duration
}

// Core owns the roster, the table pool and the match history, and serializes
// every mutating operation through the exclusion locks. Lock order is fixed:
// status lock first, then result lock.
type Core struct {
	statusLock *ExclusionLock
	resultLock *ExclusionLock

	registry *PlayerRegistry
	tables   *TableLedger
	history  *MatchHistoryLedger

	store    RecordStore
	settings Settings

	tieBreak TieBreak
	now      func() time.Time

	// At-most-one-pending coalesced matching request, drained by the
	// scheduler tick.
	pendingMatch atomic.Bool
}

func NewCore(store RecordStore, settings Settings, tieBreak TieBreak, lockTimeout time.Duration, now func() time.Time) *Core {
	return &Core{
		statusLock: NewExclusionLock("status", lockTimeout),
		resultLock: NewExclusionLock("result", lockTimeout),
		registry:   NewPlayerRegistry(),
		tables:     NewTableLedger(),
		history:    NewMatchHistoryLedger(),
		store:      store,
		settings:   settings,
		tieBreak:   tieBreak,
		now:        now,
	}
}

// Restore loads previously persisted state. Must be called before the core
// starts serving operations.
func (c *Core) Restore(players []domain.Player, matches []domain.MatchRecord, slots []domain.TableSlot) error {
	for _, player := range players {
		if err := c.registry.Add(player); err != nil {
			return fmt.Errorf("restore players: %w", err)
		}
	}
	for _, record := range matches {
		if err := c.history.Restore(record); err != nil {
			return fmt.Errorf("restore matches: %w", err)
		}
	}
	for _, slot := range slots {
		// Restored slots keep whatever table numbers they were persisted
		// with, even if capacity was lowered since.
		maxTables := slot.Number
		if err := c.tables.Reserve(slot, maxTables); err != nil {
			return fmt.Errorf("restore tables: %w", err)
		}
	}
	return nil
}

// RegisterPlayer adds a new player to the roster with status Waiting. The id
// must already be normalized by the input collaborator.
func (c *Core) RegisterPlayer(ctx context.Context, id, name string) (domain.Player, error) {
	if !strutils.PlayerIDIsNormalized(id) {
		return domain.Player{}, fmt.Errorf("%w: player id %q is not normalized", domain.ErrInvalidValue, id)
	}
	if name == "" {
		return domain.Player{}, fmt.Errorf("%w: player name is empty", domain.ErrInvalidValue)
	}

	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return domain.Player{}, fmt.Errorf("registerPlayer: %w", err)
	}
	defer release()

	player := domain.Player{
		ID:     id,
		Name:   name,
		Status: domain.StatusWaiting,
	}
	if err := c.registry.Add(player); err != nil {
		return domain.Player{}, fmt.Errorf("registerPlayer: %w", err)
	}

	c.writeThrough(ctx, "registerPlayer", func() error {
		return c.store.AppendPlayer(ctx, player)
	})

	logging.FromContext(ctx).InfoContext(ctx, "Registered player", "playerId", id, "name", name)

	return player, nil
}

// RunMatching executes one matching run under the status lock. Maintenance
// mode and an insufficient pool are informational no-ops, not errors.
func (c *Core) RunMatching(ctx context.Context) (MatchingOutcome, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return MatchingOutcome{}, fmt.Errorf("runMatching: %w", err)
	}
	defer release()

	return c.runMatchingLocked(ctx)
}

// runMatchingLocked requires the status lock to be held.
func (c *Core) runMatchingLocked(ctx context.Context) (MatchingOutcome, error) {
	logger := logging.FromContext(ctx)

	maintenance, err := c.settings.MaintenanceEnabled(ctx)
	if err != nil {
		return MatchingOutcome{}, fmt.Errorf("runMatching: failed to read maintenance flag: %w", err)
	}
	if maintenance {
		logger.InfoContext(ctx, "Matching suppressed", "reason", "maintenance active")
		return MatchingOutcome{MaintenanceActive: true}, nil
	}

	maxTables, err := c.settings.MaxTables(ctx)
	if err != nil {
		return MatchingOutcome{}, fmt.Errorf("runMatching: failed to read max tables: %w", err)
	}

	outcome, err := runMatching(c.registry, c.history, c.tables, maxTables, c.tieBreak, c.now())
	if err != nil {
		reporting.Report(ctx, err)
		return MatchingOutcome{}, fmt.Errorf("runMatching: %w", err)
	}

	if outcome.InsufficientPool {
		logger.InfoContext(ctx, "Matching skipped", "reason", "insufficient pool")
		return outcome, nil
	}

	for _, pair := range outcome.Committed {
		slot, ok := c.tables.SlotSeating(pair.Player1ID)
		if !ok {
			continue
		}
		c.writeThrough(ctx, "runMatching", func() error {
			return c.store.UpsertActiveTable(ctx, slot)
		})
		for _, id := range []string{pair.Player1ID, pair.Player2ID} {
			player, _ := c.registry.Get(id)
			c.writeThrough(ctx, "runMatching", func() error {
				return c.store.UpdatePlayer(ctx, player)
			})
		}
	}

	metrics.pairsCommitted.Add(ctx, int64(len(outcome.Committed)))
	metrics.pairsSkipped.Add(ctx, int64(len(outcome.SkippedNoOpponent)+len(outcome.SkippedForCapacity)))

	logger.InfoContext(ctx, "Matching run completed",
		"committed", len(outcome.Committed),
		"skippedNoOpponent", len(outcome.SkippedNoOpponent),
		"skippedForCapacity", len(outcome.SkippedForCapacity),
	)

	return outcome, nil
}

// RequestMatching runs matching inline when the status lock is free and
// otherwise coalesces the request into the at-most-one-pending deferred run.
func (c *Core) RequestMatching(ctx context.Context) (MatchingOutcome, bool, error) {
	release, ok := c.statusLock.TryAcquire()
	if !ok {
		c.pendingMatch.Store(true)
		logging.FromContext(ctx).InfoContext(ctx, "Matching deferred", "reason", "lock busy")
		return MatchingOutcome{}, true, nil
	}
	defer release()

	outcome, err := c.runMatchingLocked(ctx)
	return outcome, false, err
}

// FlushDeferredMatching executes the pending deferred matching run, if any.
// Invoked by the scheduler collaborator once per tick.
func (c *Core) FlushDeferredMatching(ctx context.Context) (*MatchingOutcome, error) {
	if !c.pendingMatch.CompareAndSwap(true, false) {
		return nil, nil
	}

	outcome, err := c.RunMatching(ctx)
	if err != nil {
		// Keep the request pending so the next tick retries it.
		c.pendingMatch.Store(true)
		return nil, fmt.Errorf("flushDeferredMatching: %w", err)
	}
	return &outcome, nil
}

// CorrectMatch swaps winner and loser on a completed match and issues the
// compensating statistic adjustments, floored at 0 on each side. This is the
// single permitted mutation of the match history.
func (c *Core) CorrectMatch(ctx context.Context, matchID int64) (domain.MatchRecord, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w", err)
	}
	defer release()

	releaseResult, err := c.resultLock.Acquire(ctx)
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w", err)
	}
	defer releaseResult()

	record, ok := c.history.Get(matchID)
	if !ok {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w: match %d", domain.ErrMatchNotFound, matchID)
	}

	oldWinner, ok := c.registry.Get(record.WinnerID)
	if !ok {
		err := fmt.Errorf("correctMatch: %w: winner %s of match %d not in roster", domain.ErrDataConsistency, record.WinnerID, matchID)
		reporting.Report(ctx, err)
		return domain.MatchRecord{}, err
	}
	oldLoser, ok := c.registry.Get(record.LoserID)
	if !ok {
		err := fmt.Errorf("correctMatch: %w: loser %s of match %d not in roster", domain.ErrDataConsistency, record.LoserID, matchID)
		reporting.Report(ctx, err)
		return domain.MatchRecord{}, err
	}

	_, corrected, err := c.history.Correct(matchID)
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w", err)
	}

	oldWinner.Wins = floorAtZero(oldWinner.Wins - 1)
	oldWinner.Losses++
	oldLoser.Wins++
	oldLoser.Losses = floorAtZero(oldLoser.Losses - 1)

	if err := c.registry.Put(oldWinner); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w", err)
	}
	if err := c.registry.Put(oldLoser); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("correctMatch: %w", err)
	}

	c.writeThrough(ctx, "correctMatch", func() error {
		return c.store.UpdateMatch(ctx, corrected)
	})
	c.writeThrough(ctx, "correctMatch", func() error {
		return c.store.UpdatePlayer(ctx, oldWinner)
	})
	c.writeThrough(ctx, "correctMatch", func() error {
		return c.store.UpdatePlayer(ctx, oldLoser)
	})
	c.writeThrough(ctx, "correctMatch", func() error {
		return c.store.AppendCorrection(ctx, matchID, c.now())
	})

	// Corrections are logged distinctly from normal result appends.
	logging.FromContext(ctx).WarnContext(ctx, "Match corrected",
		"matchId", matchID,
		"newWinnerId", corrected.WinnerID,
		"newLoserId", corrected.LoserID,
	)

	return corrected, nil
}

// SetMaxTables changes the table capacity. The new maximum must stay within
// [1, 200] and may never shrink below the highest currently-occupied table
// number.
func (c *Core) SetMaxTables(ctx context.Context, maxTables int) error {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("setMaxTables: %w", err)
	}
	defer release()

	if maxUsed := c.tables.MaxUsedTableNumber(); maxTables < maxUsed {
		return fmt.Errorf("%w: max tables %d below highest occupied table %d", domain.ErrInvalidValue, maxTables, maxUsed)
	}
	if err := c.settings.SetMaxTables(ctx, maxTables); err != nil {
		return fmt.Errorf("setMaxTables: %w", err)
	}

	logging.FromContext(ctx).InfoContext(ctx, "Max tables updated", "maxTables", maxTables)
	return nil
}

// SetMaintenance toggles the maintenance flag. While set, matching runs
// no-op.
func (c *Core) SetMaintenance(ctx context.Context, enabled bool) error {
	if err := c.settings.SetMaintenance(ctx, enabled); err != nil {
		return fmt.Errorf("setMaintenance: %w", err)
	}
	logging.FromContext(ctx).InfoContext(ctx, "Maintenance flag updated", "enabled", enabled)
	return nil
}

// ActiveTables returns a consistent snapshot of the occupied tables with
// elapsed time computed against the core clock.
func (c *Core) ActiveTables(ctx context.Context) ([]ActiveTable, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("activeTables: %w", err)
	}
	defer release()

	now := c.now()
	slots := c.tables.OccupiedSlots()
	active := make([]ActiveTable, 0, len(slots))
	for _, slot := range slots {
		active = append(active, ActiveTable{
			TableSlot: slot,
			Elapsed:   now.Sub(slot.StartedAt),
		})
	}
	return active, nil
}

// Standings returns every player ordered by wins descending, then losses
// ascending, then id.
func (c *Core) Standings(ctx context.Context) ([]domain.Player, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	defer release()

	players := c.registry.All()
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Wins != players[j].Wins {
			return players[i].Wins > players[j].Wins
		}
		if players[i].Losses != players[j].Losses {
			return players[i].Losses < players[j].Losses
		}
		return players[i].ID < players[j].ID
	})
	return players, nil
}

// Player returns a copy of a single roster record.
func (c *Core) Player(ctx context.Context, id string) (domain.Player, error) {
	release, err := c.statusLock.Acquire(ctx)
	if err != nil {
		return domain.Player{}, fmt.Errorf("player: %w", err)
	}
	defer release()

	player, ok := c.registry.Get(id)
	if !ok {
		return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	return player, nil
}

// writeThrough persists a committed in-memory mutation. Store failures do not
// roll back the tournament state; they are logged and reported for operator
// investigation.
func (c *Core) writeThrough(ctx context.Context, operation string, write func() error) {
	if err := write(); err != nil {
		err = fmt.Errorf("%s: record store write failed: %w", operation, err)
		logging.FromContext(ctx).ErrorContext(ctx, "Record store write failed", "operation", operation, "error", err.Error())
		reporting.Report(ctx, err, map[string]string{
			"operation": operation,
		})
	}
}

func floorAtZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
