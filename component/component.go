// Package component implements the Component Protocol (C7): the device
// contract every runtime collaborator (gardener, LED matrix, reader,
// counter, impulse, timer, ...) satisfies, plus a process-wide registry
// devices self-register into, mirroring the teacher's NamespaceLoader
// registration pattern (spec.md §4.7).
package component

import (
	"fmt"
	"sync"

	"github.com/agentflare-ai/go-jsonschema"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/value"
)

// AttrAccessor reads one public attribute's current value.
type AttrAccessor func() value.Value

// MethodInvoker runs one public method positionally.
type MethodInvoker func(args []value.Value) error

// Device is the contract a component type implements (spec.md §4.7).
// Construction itself happens in the registered Factory; Device only
// covers the runtime-facing surface the builder and dispatcher need.
type Device interface {
	// ID returns the component's declared id (its handle in guards/actions).
	ID() string

	// InitFromOptions performs one-shot binding of collaborator objects
	// from the run's shared parameter map (spec.md §4.6.5 step 1). Missing
	// required keys must be reported as *cgmlerr.ComponentConfigError.
	InitFromOptions(options map[string]any) error

	// Attributes returns the public attribute read table.
	Attributes() map[string]AttrAccessor

	// Methods returns the public method invocation table.
	Methods() map[string]MethodInvoker
}

// Looper is implemented by devices that want a callback once per outer
// loop iteration (spec.md §4.7's optional loop_actions). post lets the
// device emit a called event into the run's event queue.
type Looper interface {
	LoopActions(post func(event string, called bool))
}

// Poster is implemented by devices that need to post a called event
// outside of LoopActions -- e.g. in response to a method invocation, such
// as the LED matrix's CheckPattern. The driver's builder calls SetPoster
// once, right after construction, for every device implementing it.
type Poster interface {
	SetPoster(post func(event string, called bool))
}

// Schematic is implemented by devices that publish a JSON Schema for their
// declared parameters (spec_full.md §4.3 expansion); devices without one
// skip validation entirely.
type Schematic interface {
	ParameterSchema() *jsonschema.Schema
}

// Factory constructs one Device instance from its declared id and the
// parameters of its CGML_COMPONENT declaration. The run's global parameter
// map is not merged into them; a device sees that map only through
// InitFromOptions.
type Factory func(id string, parameters map[string]string) (Device, error)

// Instance pairs a built Device with the declared type name it was
// constructed from, for inspection after a run (spec.md §3 "ComponentInstance").
type Instance struct {
	ID     string
	Type   string
	Device Device
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs factory under typeName. Intended to be called from a
// device package's init(), mirroring the teacher's self-registering
// namespace loaders. Re-registering the same type name overwrites the
// previous factory, which is convenient for tests that install fakes.
func Register(typeName string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = factory
}

// Lookup resolves typeName to its registered Factory.
func Lookup(typeName string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[typeName]
	return f, ok
}

// New constructs a device of typeName, failing with *cgmlerr.UnknownComponentType
// when no factory is registered for it.
func New(typeName, id string, parameters map[string]string) (Device, error) {
	factory, ok := Lookup(typeName)
	if !ok {
		return nil, cgmlerr.NewUnknownComponentType(typeName, id)
	}
	return factory(id, parameters)
}

// ValidateParameters checks raw string parameters against a device's
// published JSON Schema, when it has one. Only object schemas with string-
// valued properties are meaningful here (CGML component parameters are
// always a flat string map), so this performs presence/required checks and
// a light type-compatibility check rather than full JSON Schema validation.
func ValidateParameters(id string, schema *jsonschema.Schema, parameters map[string]string) error {
	if schema == nil {
		return nil
	}
	for _, req := range schema.Required {
		if _, ok := parameters[req]; !ok {
			return cgmlerr.NewComponentConfigError(id, fmt.Sprintf("missing required parameter %q", req), nil)
		}
	}
	for name, propSchema := range schema.Properties {
		raw, present := parameters[name]
		if !present || propSchema == nil {
			continue
		}
		if err := checkScalarType(propSchema.Type, raw); err != nil {
			return cgmlerr.NewComponentConfigError(id, fmt.Sprintf("parameter %q: %s", name, err), nil)
		}
	}
	return nil
}

func checkScalarType(t jsonschema.Type, raw string) error {
	v := value.FromLiteral(raw)
	switch t {
	case jsonschema.TypeInteger:
		if !v.IsInt() {
			return fmt.Errorf("expected an integer, got %q", raw)
		}
	case jsonschema.TypeNumber:
		if !v.IsInt() && !v.IsFloat() {
			return fmt.Errorf("expected a number, got %q", raw)
		}
	}
	return nil
}
