package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clamm-engine/internal/adapters/persistence"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/config"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/events"
	"github.com/hxuan190/clamm-engine/internal/http"
	"github.com/hxuan190/clamm-engine/internal/services/invariant"
	"github.com/hxuan190/clamm-engine/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using the process environment")
	}

	general := &config.GeneralConfig{}
	engineConf := &config.EngineConfig{}
	persistConf := &config.PersistenceConfig{}
	if err := config.LoadAll(general, engineConf, persistConf); err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	common.InitLogger(general.LogLevel, general.Env)
	common.InitRuntime()

	if err := run(general, engineConf, persistConf); err != nil {
		log.Error().Err(err).Msg("runtime stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}

func run(general *config.GeneralConfig, engineConf *config.EngineConfig, persistConf *config.PersistenceConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks := []events.Sink{events.NewLogSink(log.Logger)}
	if persistConf.EventsPath != "" {
		if err := os.MkdirAll(filepath.Dir(persistConf.EventsPath), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(persistConf.EventsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		sinks = append(sinks, events.NewWireSink(f))
	}

	ledger := token.NewBank()
	opts := []invariant.Option{invariant.WithSinks(sinks...), invariant.WithLogger(log.Logger)}

	var (
		engine *invariant.Invariant
		store  *persistence.Storage
		err    error
	)
	if persistConf.Enabled {
		if store, err = persistence.NewStorage(persistConf.DBPath); err != nil {
			return err
		}
		defer store.Close()
		state, err := store.LoadState(domain.Config{Admin: engineConf.Admin, ProtocolFee: engineConf.ProtocolFee})
		if err != nil {
			return err
		}
		engine = invariant.NewFromState(engineConf.Address, state, ledger, opts...)
	} else if engine, err = invariant.New(engineConf.Address, engineConf.Admin, engineConf.ProtocolFee, ledger, opts...); err != nil {
		return err
	}

	if err := bootstrapFeeTiers(engine, engineConf); err != nil {
		return err
	}

	httpSvc := http.NewHTTPService(general, engine)
	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpSvc.Start(); err != nil {
			errCh <- err
		}
	}()

	if store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshotLoop(ctx, engine, store, persistConf.PersistInterval())
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				httpSvc.PruneClients(10 * time.Minute)
			}
		}
	}()

	select {
	case <-ctx.Done():
		err = nil
	case err = <-errCh:
		stop()
	}

	log.Info().Msg("Shutting down services...")
	if stopErr := httpSvc.Stop(context.Background()); stopErr != nil && err == nil {
		err = stopErr
	}
	wg.Wait()

	if store != nil {
		if saveErr := store.SaveSnapshot(engine.Snapshot()); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	return err
}

// bootstrapFeeTiers registers configured tiers the state does not have yet.
func bootstrapFeeTiers(engine *invariant.Invariant, conf *config.EngineConfig) error {
	env := domain.Env{Caller: engine.GetAdmin(), Timestamp: uint64(time.Now().UnixMilli())}
	for _, tier := range conf.FeeTiers {
		if engine.FeeTierExist(tier) {
			continue
		}
		if err := engine.AddFeeTier(env, tier); err != nil {
			return err
		}
		log.Info().Str("tier", tier.String()).Msg("[runtime] fee tier registered")
	}
	return nil
}

func snapshotLoop(ctx context.Context, engine *invariant.Invariant, store *persistence.Storage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.SaveSnapshot(engine.Snapshot()); err != nil {
				log.Error().Err(err).Msg("[runtime] periodic snapshot failed")
			}
		}
	}
}
