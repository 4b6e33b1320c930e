package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/iota-uz/people-sdk/internal/server"
	"github.com/iota-uz/people-sdk/modules"
	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/eventbus"
	"github.com/iota-uz/people-sdk/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:          pool,
		EventBus:      eventbus.NewEventPublisher(logger),
		Logger:        logger,
		MigrationsDir: conf.MigrationsDir,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("address", conf.SocketAddress).Info("listening")
	if err := serverInstance.Start(runCtx, conf.SocketAddress); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
