package itf

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/composables"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/eventbus"
)

// TestContext builds an isolated application over a per-test database.
type TestContext struct {
	modules []application.Module
	dbName  string
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// WithModules adds modules to register before migrations run.
func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

// WithDBName overrides the database name derived from the test name.
func (tc *TestContext) WithDBName(name string) *TestContext {
	tc.dbName = name
	return tc
}

type TestEnvironment struct {
	Ctx  context.Context
	Pool *pgxpool.Pool
	App  application.Application
}

// Build creates the database, runs migrations, and returns a context wired
// with the pool. The database and pool are cleaned up with the test.
func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	if tc.dbName == "" {
		tc.dbName = tb.Name()
	}
	CreateDB(tc.dbName)
	pool := NewPool(DbOpts(tc.dbName))
	tb.Cleanup(pool.Close)

	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:          pool,
		EventBus:      eventbus.NewEventPublisher(conf.Logger()),
		Logger:        conf.Logger(),
		MigrationsDir: migrationsDir(tb),
	})
	if err := application.LoadModules(app, tc.modules...); err != nil {
		tb.Fatal(err)
	}
	if err := app.Migrations().Run(); err != nil {
		tb.Fatal(err)
	}

	ctx := composables.WithPool(context.Background(), pool)
	ctx = composables.WithParams(ctx, DefaultParams())

	return &TestEnvironment{
		Ctx:  ctx,
		Pool: pool,
		App:  app,
	}
}
