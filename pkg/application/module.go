package application

// Module wires a feature area's services and controllers into the
// application at startup.
type Module interface {
	Register(app Application) error
	Name() string
}

// LoadModules registers every module in order, stopping at the first error.
func LoadModules(app Application, modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(app); err != nil {
			return err
		}
	}
	return nil
}
