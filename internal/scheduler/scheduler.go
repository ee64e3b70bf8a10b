package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/opentabletop/gunslinger/internal/app"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/reporting"
)

// Start runs the tournament tick on a fixed interval in the background. The
// tick drains any deferred matching request, so the interval bounds how long
// a coalesced request can wait. The returned function stops the scheduler.
func Start(rootLogger *slog.Logger, tick app.Tick, interval time.Duration) (func() error, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	tickLogger := rootLogger.With(slog.String("component", "scheduler"))

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx := logging.AddToContext(context.Background(), tickLogger)
			ctx = reporting.AddTagsToContext(ctx, map[string]string{
				"component": "scheduler",
			})

			if err := tick(ctx); err != nil {
				reporting.Report(ctx, fmt.Errorf("scheduled tick failed: %w", err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tick job: %w", err)
	}

	sched.Start()

	return sched.Shutdown, nil
}
