package main

import (
	"context"
	"log"

	"doc-support-be/internal/bootstrap"
	"doc-support-be/internal/config"
	"doc-support-be/internal/server"
	"doc-support-be/internal/tracer"
	"doc-support-be/pkg/notify"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	if natsBroker, ok := container.Broker.(*notify.NatsBroker); ok {
		defer natsBroker.Close()
	}

	// 3. Start Background Services
	if err := container.DeliveryService.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start delivery service: %v", err)
	}

	color.Green("Doc Support backend starting (env: %s)", cfg.App.Environment)

	// 4. Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
