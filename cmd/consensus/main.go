package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/streamgeo/internal/adapters/nats"
	"github.com/samirrijal/streamgeo/internal/adapters/postgres"
	"github.com/samirrijal/streamgeo/internal/core/usecases"
	"github.com/samirrijal/streamgeo/internal/pkg/config"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
	"github.com/samirrijal/streamgeo/internal/pkg/logging"
	"github.com/samirrijal/streamgeo/internal/workflows"
)

func main() {
	cfg, err := config.Load("streamgeo-consensus")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	engine := geospatial.NewEngine(cfg.Engine.Options()...)
	svc := usecases.NewStreamService(engine, postgres.NewStreamRepo(db), nil, pub)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ConsensusWorkflow)
	w.RegisterActivity(&workflows.ConsensusActivities{Streams: svc})

	slog.Info("consensus worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
