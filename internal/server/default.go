package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/middleware"
	"github.com/iota-uz/people-sdk/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger),
		middleware.WithPool(options.Pool),
		middleware.RequestParams(),
	}
	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(app), nil
}
