package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/repository"
	"github.com/noah-isme/session-scheduler/internal/service"
	"github.com/noah-isme/session-scheduler/pkg/cache"
	"github.com/noah-isme/session-scheduler/pkg/config"
	"github.com/noah-isme/session-scheduler/pkg/database"
	"github.com/noah-isme/session-scheduler/pkg/logger"
)

func main() {
	var req dto.PlanRequest
	flags := pflag.NewFlagSet("scheduler", pflag.ExitOnError)
	flags.StringVar(&req.PartyAID, "party-a", "", "first party id")
	flags.StringVar(&req.PartyBID, "party-b", "", "second party id")
	flags.StringSliceVar(&req.Days, "days", nil, "preferred days, e.g. Monday,Mittwoch")
	flags.StringSliceVar(&req.TimeRanges, "times", nil, "preferred time ranges, e.g. 14:00-16:00")
	flags.IntVar(&req.DurationMinutes, "duration", 60, "session length in minutes")
	flags.IntVar(&req.SessionsNeeded, "sessions", 1, "number of sessions to schedule")
	flags.BoolVar(&req.DistributeEvenly, "distribute", false, "space sessions at least --min-gap days apart")
	flags.IntVar(&req.MinDaysBetween, "min-gap", 0, "minimum days between sessions")
	flags.IntVar(&req.MaxDaysBetween, "max-gap", 0, "maximum days between sessions")
	flags.BoolVar(&req.AlternatingRoles, "alternate", false, "alternate organizer between parties")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if validation := service.NewPreferenceParser(logr).Validate(req.Days, req.TimeRanges); !validation.IsValid {
		logr.Warn("preference input has problems; defaults will fill the gaps", zap.Strings("errors", validation.Errors))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("commitment cache disabled", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logr.Error("metrics listener stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background()) //nolint:errcheck
	}

	var store service.CommitmentStore = repository.NewCommitmentRepository(db)
	if redisClient != nil {
		cacheRepo := repository.NewCommitmentCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		store = service.NewCachedCommitmentStore(store, cacheRepo, cfg.Cache.CommitmentTTL, metrics, logr)
	}

	scheduler := service.NewSchedulingService(
		store,
		service.SystemClock{Location: cfg.Scheduler.Location()},
		metrics,
		nil,
		logr,
		service.SchedulingConfig{
			ConflictBuffer:         cfg.Scheduler.ConflictBuffer,
			LeadTime:               cfg.Scheduler.LeadTime,
			MinSearchWeeks:         cfg.Scheduler.MinSearchWeeks,
			RescheduleWeeks:        cfg.Scheduler.RescheduleWeeks,
			DistributeSearchFactor: cfg.Scheduler.DistributeSearchFactor,
			RescheduleLimit:        cfg.Scheduler.RescheduleLimit,
		},
	)

	plan, err := scheduler.Plan(ctx, req)
	if err != nil {
		logr.Fatal("scheduling failed", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(plan); err != nil {
		logr.Fatal("failed to write plan", zap.Error(err))
	}
}
