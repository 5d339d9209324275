package integrators

import (
	"fmt"
	"sort"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"symplectic": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"kickdrift":  func() dynamo.Integrator { return NewKickDrift() },
	"leapfrog":   func() dynamo.Integrator { return NewLeapfrog() },
}

// ByName returns a new integrator. The empty name selects "symplectic".
func ByName(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = "symplectic"
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
