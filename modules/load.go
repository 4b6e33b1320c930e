package modules

import (
	"github.com/iota-uz/people-sdk/modules/directory"
	"github.com/iota-uz/people-sdk/modules/observations"
	"github.com/iota-uz/people-sdk/pkg/application"
)

// BuiltInModules in registration order: observations resolves the policy
// service the directory module registers.
var BuiltInModules = []application.Module{
	directory.NewModule(),
	observations.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	if err := application.LoadModules(app, BuiltInModules...); err != nil {
		return err
	}
	return application.LoadModules(app, externalModules...)
}
