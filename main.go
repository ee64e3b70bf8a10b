package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/opentabletop/gunslinger/internal/adapters/cache"
	"github.com/opentabletop/gunslinger/internal/adapters/database"
	"github.com/opentabletop/gunslinger/internal/adapters/recordstore"
	"github.com/opentabletop/gunslinger/internal/adapters/settings"
	"github.com/opentabletop/gunslinger/internal/app"
	"github.com/opentabletop/gunslinger/internal/config"
	"github.com/opentabletop/gunslinger/internal/domain"
	"github.com/opentabletop/gunslinger/internal/logging"
	"github.com/opentabletop/gunslinger/internal/ports"
	"github.com/opentabletop/gunslinger/internal/reporting"
	"github.com/opentabletop/gunslinger/internal/scheduler"
	"github.com/opentabletop/gunslinger/internal/telemetry"
	"github.com/opentabletop/gunslinger/internal/tournament"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "opentabletop.org"
const STAGING_DOMAIN_SUFFIX = "gunslinger-staging.pages.dev"

const lockTimeout = 30 * time.Second
const tickInterval = 1 * time.Second

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	ctx := logging.AddToContext(context.Background(), logger)

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	otelShutdown, err := telemetry.SetupOTelSDK(ctx, "gunslinger")
	if err != nil {
		fail("Failed to initialize OpenTelemetry", "error", err.Error())
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
		}
	}()

	var store recordstore.Store
	var tournamentSettings tournament.Settings

	var players []domain.Player
	var matches []domain.MatchRecord
	var slots []domain.TableSlot

	if conf.IsDevelopment() && conf.DBConnectionString() == "" {
		logger.Info("No database configured - using in-memory persistence")
		store = recordstore.NewMemory()
		tournamentSettings, err = settings.NewMemory(conf.DefaultMaxTables())
		if err != nil {
			fail("Failed to initialize settings", "error", err.Error())
		}
	} else {
		logger.Info("Initializing database connection")
		db, err := database.NewConfiguredPostgresDatabase(conf)
		if err != nil {
			fail("Failed to initialize database connection", "error", err.Error())
		}
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!conf.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		postgresStore := recordstore.NewPostgres(db, schemaName)
		if err := postgresStore.ValidateSchema(ctx); err != nil {
			fail("Database schema validation failed", "error", err.Error())
		}
		store = postgresStore

		tournamentSettings, err = settings.NewPostgres(db, schemaName, conf.DefaultMaxTables())
		if err != nil {
			fail("Failed to initialize settings", "error", err.Error())
		}

		players, err = postgresStore.ListPlayers(ctx)
		if err != nil {
			fail("Failed to load players", "error", err.Error())
		}
		matches, err = postgresStore.ListMatches(ctx)
		if err != nil {
			fail("Failed to load match history", "error", err.Error())
		}
		slots, err = postgresStore.ListActiveTables(ctx)
		if err != nil {
			fail("Failed to load active tables", "error", err.Error())
		}
	}

	core := tournament.NewCore(store, tournamentSettings, tournament.TieBreakLongestIdleFirst, lockTimeout, time.Now)
	if err := core.Restore(players, matches, slots); err != nil {
		fail("Failed to restore tournament state", "error", err.Error())
	}
	logger.Info("Restored tournament state",
		"players", len(players),
		"matches", len(matches),
		"activeTables", len(slots),
	)

	tablesCache := cache.NewTTLCache[[]tournament.ActiveTable](2 * time.Second)
	standingsCache := cache.NewTTLCache[[]domain.Player](5 * time.Second)

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	registerPlayer := app.BuildRegisterPlayer(core)
	updatePlayerState := app.BuildUpdatePlayerState(core)
	reportMatchResult := app.BuildReportMatchResult(updatePlayerState)
	correctMatch := app.BuildCorrectMatch(core)
	requestMatching := app.BuildRequestMatching(core)
	getActiveTables := app.BuildGetActiveTables(core, tablesCache)
	getStandings := app.BuildGetStandings(core, standingsCache)
	getPlayer := app.BuildGetPlayer(core)
	setMaxTables := app.BuildSetMaxTables(core)
	setMaintenance := app.BuildSetMaintenance(core)
	tick := app.BuildTick(core)

	stopScheduler, err := scheduler.Start(logger, tick, tickInterval)
	if err != nil {
		fail("Failed to start scheduler", "error", err.Error())
	}
	defer func() {
		if err := stopScheduler(); err != nil {
			logger.Error("Failed to stop scheduler", "error", err.Error())
		}
	}()
	logger.Info("Started scheduler", "tickInterval", tickInterval.String())

	http.HandleFunc(
		"POST /v1/players",
		ports.MakeRegisterPlayerHandler(
			registerPlayer,
			logger.With("port", "registerplayer"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/players",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/players",
		ports.MakeListPlayersHandler(
			getStandings,
			allowedOrigins,
			logger.With("port", "listplayers"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/players/{id}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/players/{id}",
		ports.MakeGetPlayerHandler(
			getPlayer,
			allowedOrigins,
			logger.With("port", "getplayer"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/players/{id}/status",
		ports.MakeUpdatePlayerStatusHandler(
			updatePlayerState,
			logger.With("port", "updateplayerstatus"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/matches/result",
		ports.MakeReportMatchResultHandler(
			reportMatchResult,
			logger.With("port", "reportmatchresult"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/matches/{id}/correct",
		ports.MakeCorrectMatchHandler(
			correctMatch,
			logger.With("port", "correctmatch"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/tables",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/tables",
		ports.MakeListTablesHandler(
			getActiveTables,
			allowedOrigins,
			logger.With("port", "listtables"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"POST /v1/matching/run",
		ports.MakeRunMatchingHandler(
			requestMatching,
			logger.With("port", "runmatching"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"PUT /v1/admin/max-tables",
		ports.MakeSetMaxTablesHandler(
			setMaxTables,
			logger.With("port", "setmaxtables"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"PUT /v1/admin/maintenance",
		ports.MakeSetMaintenanceHandler(
			setMaintenance,
			logger.With("port", "setmaintenance"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", conf.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
