package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/az-dns/internal/dns/common/clock"
	"github.com/haukened/az-dns/internal/dns/common/log"
	"github.com/haukened/az-dns/internal/dns/config"
	"github.com/haukened/az-dns/internal/dns/domain"
	"github.com/haukened/az-dns/internal/dns/repos/answercache"
	"github.com/haukened/az-dns/internal/dns/repos/blobstore"
	"github.com/haukened/az-dns/internal/dns/repos/zonecodec"
	"github.com/haukened/az-dns/internal/dns/repos/zonefile"
	"github.com/haukened/az-dns/internal/dns/services/authority"
	"github.com/haukened/az-dns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "zonec"
)

// Application wires the zone compiler, the blob archive, and the live
// zone set together. SIGHUP recompiles the zone directory and publishes
// any zone whose serial advanced.
type Application struct {
	config    *config.AppConfig
	store     *blobstore.Store
	authority *authority.Authority
	resolver  *resolver.Resolver
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"zone_dir":   cfg.ZoneDir,
		"data_path":  cfg.DataPath,
		"cache_size": cfg.CacheSize,
	}, "Starting zone compiler")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}
	defer func() {
		if err := app.store.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing zone archive")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	if err := app.Run(ctx, cancel, sigChan); err != nil {
		log.Fatal(map[string]any{"error": err}, "Compiler failed")
	}

	log.Info(nil, "Zone compiler stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	store, err := blobstore.Open(cfg.DataPath, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone archive: %w", err)
	}

	auth := authority.New(authority.Options{
		FalsePositiveRate: cfg.BloomFPRate,
		Logger:            logger,
	})

	var cache resolver.AnswerCache
	if cfg.DisableCache {
		log.Info(map[string]any{"disabled": true}, "Answer caching disabled")
	} else {
		cache, err = answercache.New(int(cfg.CacheSize), clk)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create answer cache: %w", err)
		}
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "Answer cache configured")
	}

	res := resolver.New(resolver.Options{
		Source: auth,
		Cache:  cache,
		Logger: logger,
	})

	app := &Application{
		config:    cfg,
		store:     store,
		authority: auth,
		resolver:  res,
	}

	// Serve the archived state first so a broken zone directory cannot
	// take previously published zones offline.
	if err := app.loadArchive(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load zone archive: %w", err)
	}
	if err := app.compile(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to compile zones: %w", err)
	}
	return app, nil
}

// loadArchive decodes every stored blob and publishes it.
func (app *Application) loadArchive() error {
	origins, err := app.store.Origins()
	if err != nil {
		return err
	}
	for _, key := range origins {
		origin, err := domain.ParseName(key)
		if err != nil {
			return fmt.Errorf("archived origin %q: %w", key, err)
		}
		blob, ok, err := app.store.Get(origin)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		z, err := zonecodec.Decode(blob)
		if err != nil {
			return fmt.Errorf("archived zone %s: %w", origin, err)
		}
		if err := app.authority.Publish(z); err != nil {
			return err
		}
	}
	log.Info(map[string]any{"zones": len(origins)}, "Zone archive loaded")
	return nil
}

// compile loads the zone directory, encodes each zone, verifies the
// blob decodes back to an equal zone, stores it, and publishes it. A
// zone whose serial did not advance is skipped, not an error.
func (app *Application) compile() error {
	zones, err := zonefile.LoadDirectory(app.config.ZoneDir)
	if err != nil {
		return err
	}

	published := 0
	for _, z := range zones {
		blob, err := zonecodec.Encode(z)
		if err != nil {
			return fmt.Errorf("zone %s: %w", z.Origin(), err)
		}
		decoded, err := zonecodec.Decode(blob)
		if err != nil {
			return fmt.Errorf("zone %s failed round-trip: %w", z.Origin(), err)
		}
		if !z.Equal(decoded) {
			return fmt.Errorf("zone %s: %w: decoded zone differs", z.Origin(), domain.ErrCorruptZone)
		}
		reencoded, err := zonecodec.Encode(decoded)
		if err != nil {
			return fmt.Errorf("zone %s: %w", z.Origin(), err)
		}
		if !bytes.Equal(blob, reencoded) {
			return fmt.Errorf("zone %s: %w: unstable encoding", z.Origin(), domain.ErrCorruptZone)
		}

		if err := app.authority.Publish(z); err != nil {
			if errors.Is(err, domain.ErrStaleUpdate) {
				log.Debug(map[string]any{
					"origin": z.Origin().String(),
					"serial": z.Serial(),
				}, "Zone unchanged, skipping")
				continue
			}
			return err
		}
		if err := app.store.Put(z.Origin(), z.Serial(), blob); err != nil {
			return err
		}
		if err := app.verify(z.Origin()); err != nil {
			return err
		}
		published++
	}

	log.Info(map[string]any{
		"zone_dir":  app.config.ZoneDir,
		"zones":     len(zones),
		"published": published,
	}, "Zone directory compiled")
	return nil
}

// verify runs a smoke query against the freshly published version: the
// apex SOA must resolve through the full routing and snapshot path.
func (app *Application) verify(origin domain.Name) error {
	ans, err := app.resolver.Resolve(origin, domain.RRTypeSOA)
	if err != nil {
		return fmt.Errorf("zone %s failed verification: %w", origin, err)
	}
	if !ans.Positive() || len(ans.Records) == 0 {
		return fmt.Errorf("zone %s failed verification: apex SOA did not resolve (%s)", origin, ans.Outcome)
	}
	return nil
}

// Run blocks handling signals until the context is cancelled. SIGHUP
// triggers a recompile; a failed recompile is logged and the previous
// versions keep serving.
func (app *Application) Run(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal) error {
	log.Info(map[string]any{
		"origins": len(app.authority.Origins()),
	}, "Zone compiler running")

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				log.Info(nil, "Reload signal received")
				if err := app.compile(); err != nil {
					log.Error(map[string]any{"error": err}, "Reload failed, keeping previous zones")
				}
				continue
			}
			log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
			cancel()
		case <-ctx.Done():
			return nil
		}
	}
}
