package observations

import (
	directorypersistence "github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/observations/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/observations/presentation/controllers"
	"github.com/iota-uz/people-sdk/modules/observations/services"
	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

// Register depends on the directory module having registered the policy
// service first.
func (m *Module) Register(app application.Application) error {
	policySvc := app.Service(policy.Service{}).(*policy.Service)

	app.RegisterServices(
		services.NewObservationsService(
			persistence.NewObservationRepository(),
			directorypersistence.NewTeammateRepository(),
			directorypersistence.NewOrganizationRepository(),
			policySvc,
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewObservationsAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "observations"
}
