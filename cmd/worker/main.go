package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/streamgeo/internal/adapters/nats"
	"github.com/samirrijal/streamgeo/internal/adapters/postgres"
	"github.com/samirrijal/streamgeo/internal/adapters/valkey"
	"github.com/samirrijal/streamgeo/internal/core/ports"
	"github.com/samirrijal/streamgeo/internal/core/usecases"
	"github.com/samirrijal/streamgeo/internal/pkg/config"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
	"github.com/samirrijal/streamgeo/internal/pkg/logging"
	"github.com/samirrijal/streamgeo/internal/pkg/telemetry"
)

// worker consumes streams queued on streams.inbound.>, stores them and
// announces their distance.
func main() {
	cfg, err := config.Load("streamgeo-worker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	engine := geospatial.NewEngine(cfg.Engine.Options()...)
	svc := usecases.NewStreamService(engine, postgres.NewStreamRepo(db), cache, pub)

	if err := sub.SubscribeInbound(ctx, svc.ProcessInbound); err != nil {
		log.Fatalf("subscribe inbound: %v", err)
	}

	slog.Info("inbound worker started", "subject", natsadapter.SubjectInbound+".>")
	<-ctx.Done()
	slog.Info("inbound worker stopping")
}
