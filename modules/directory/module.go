package directory

import (
	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/directory/presentation/controllers"
	"github.com/iota-uz/people-sdk/modules/directory/services"
	"github.com/iota-uz/people-sdk/pkg/application"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	people := persistence.NewPersonRepository()
	orgs := persistence.NewOrganizationRepository()
	teammates := persistence.NewTeammateRepository()
	tenures := persistence.NewTenureRepository()
	reader := persistence.NewDirectoryReadRepository()

	peopleSvc := services.NewPeopleService(people)
	orgsSvc := services.NewOrganizationsService(orgs)

	app.RegisterServices(
		peopleSvc,
		orgsSvc,
		services.NewEmploymentService(peopleSvc, orgsSvc, teammates, tenures, app.EventPublisher()),
		policy.NewService(reader, conf.Policy.MaxTraversalDepth),
	)

	app.RegisterControllers(
		controllers.NewDirectoryAPIController(app),
		controllers.NewPolicyAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "directory"
}
