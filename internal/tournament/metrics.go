package tournament

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type tournamentMetricsCollection struct {
	pairsCommitted metric.Int64Counter
	pairsSkipped   metric.Int64Counter
}

var metrics tournamentMetricsCollection

func init() {
	const name = "gunslinger/tournament"
	meter := otel.Meter(name)

	pairsCommitted, err := meter.Int64Counter(
		"tournament/pairs_committed",
		metric.WithDescription("Pairs seated by matching runs"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create pairs committed metric: %w", err))
	}

	pairsSkipped, err := meter.Int64Counter(
		"tournament/skipped",
		metric.WithDescription("Players and pairs left waiting by matching runs for rematch avoidance or capacity"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create pairs skipped metric: %w", err))
	}

	metrics = tournamentMetricsCollection{
		pairsCommitted: pairsCommitted,
		pairsSkipped:   pairsSkipped,
	}
}
