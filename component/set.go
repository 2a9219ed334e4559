package component

import (
	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/value"
)

// Set is the fully constructed collection of a run's component instances,
// keyed by their declared id. It implements the attribute/method lookup
// contract the mini-language and HSM runtime need (hsm.Binder), so guards
// and actions can address devices by id without knowing their concrete type.
type Set map[string]Device

// ReadAttr implements lang.AttrLookup.
func (s Set) ReadAttr(componentID, attribute string) (value.Value, error) {
	dev, ok := s[componentID]
	if !ok {
		return value.Value{}, cgmlerr.NewGuardEvaluationError(componentID, attribute, "unknown component id: "+componentID, nil)
	}
	accessor, ok := dev.Attributes()[attribute]
	if !ok {
		return value.Value{}, cgmlerr.NewGuardEvaluationError(componentID, attribute, "component "+componentID+" has no attribute "+attribute, nil)
	}
	return accessor(), nil
}

// Invoke implements lang.Invoker.
func (s Set) Invoke(componentID, method string, args []value.Value) error {
	dev, ok := s[componentID]
	if !ok {
		return cgmlerr.NewActionBindingError(componentID+"."+method, "unknown component id: "+componentID, nil)
	}
	invoker, ok := dev.Methods()[method]
	if !ok {
		return cgmlerr.NewActionBindingError(componentID+"."+method, "component "+componentID+" has no method "+method, nil)
	}
	return invoker(args)
}

// LoopAll runs LoopActions on every device that implements Looper, in a
// stable order (spec.md §4.8: "for each component: component.loop_actions()").
func (s Set) LoopAll(ids []string, post func(event string, called bool)) {
	for _, id := range ids {
		if looper, ok := s[id].(Looper); ok {
			looper.LoopActions(post)
		}
	}
}
