package core

import (
	"fmt"
	"sync"
)

// ParamKind says where a parameter's value comes from.
type ParamKind string

const (
	// ConstParam is a literal value.  The empty ParamKind means
	// the same thing.
	ConstParam ParamKind = "const"

	// BlackboardParam names a blackboard key.
	BlackboardParam ParamKind = "blackboard"

	// PropertyParam names a host property.
	PropertyParam ParamKind = "property"
)

// Param is a reference to a value that is resolved when it's needed.
type Param struct {
	Kind  ParamKind   `json:"kind,omitempty" yaml:",omitempty"`
	Key   string      `json:"key,omitempty" yaml:",omitempty"`
	Value interface{} `json:"value,omitempty" yaml:",omitempty"`
}

// Const makes a constant Param.
func Const(v interface{}) Param {
	return Param{Kind: ConstParam, Value: v}
}

// BB makes a blackboard Param.
func BB(key string) Param {
	return Param{Kind: BlackboardParam, Key: key}
}

// Prop makes a property Param.
func Prop(key string) Param {
	return Param{Kind: PropertyParam, Key: key}
}

func (p Param) String() string {
	switch p.Kind {
	case BlackboardParam, PropertyParam:
		return string(p.Kind) + ":" + p.Key
	default:
		return fmt.Sprintf("%v", p.Value)
	}
}

// Binding connects a Param to an expression variable.
type Binding struct {
	Param `yaml:",inline"`
	Var   string `json:"var" yaml:"var"`
}

// Bind makes a Binding.
func Bind(v string, p Param) Binding {
	return Binding{Param: p, Var: v}
}

// Bindings is a map from variable names to values.
type Bindings map[string]interface{}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for p, v := range bs {
		acc[p] = v
	}
	return acc
}

// Properties is the host's view of an agent's named attributes.
//
// Implementations are only called from the goroutine that's driving
// the agent.
type Properties interface {
	GetProperty(key string) (interface{}, bool)
	SetProperty(key string, value interface{}) error
}

// PropertyMap is a simple Properties.
type PropertyMap struct {
	sync.Mutex
	m map[string]interface{}
}

// NewPropertyMap makes a PropertyMap with the given initial
// properties, which are copied.
func NewPropertyMap(init map[string]interface{}) *PropertyMap {
	m := make(map[string]interface{}, len(init))
	for k, v := range init {
		m[k] = v
	}
	return &PropertyMap{m: m}
}

func (pm *PropertyMap) GetProperty(key string) (interface{}, bool) {
	pm.Lock()
	v, have := pm.m[key]
	pm.Unlock()
	return v, have
}

func (pm *PropertyMap) SetProperty(key string, value interface{}) error {
	pm.Lock()
	pm.m[key] = value
	pm.Unlock()
	return nil
}

// GetValue resolves the Param against this agent's blackboard and
// properties.
func (a *Agent) GetValue(p Param) (interface{}, error) {
	switch p.Kind {
	case "", ConstParam:
		return p.Value, nil
	case BlackboardParam:
		v, have := a.blackboard[p.Key]
		if !have {
			return nil, &MissingKey{p.Key}
		}
		return v, nil
	case PropertyParam:
		if a.Props == nil {
			return nil, &NoProperties{a.Id}
		}
		v, have := a.Props.GetProperty(p.Key)
		if !have {
			return nil, &MissingKey{p.Key}
		}
		return v, nil
	default:
		return nil, &BadParam{p}
	}
}

// SetValue writes through the Param.
//
// A constant can't be a target.
func (a *Agent) SetValue(p Param, v interface{}) error {
	switch p.Kind {
	case "", ConstParam:
		return &ConstantTarget{p}
	case BlackboardParam:
		a.blackboard[p.Key] = v
		return nil
	case PropertyParam:
		if a.Props == nil {
			return &NoProperties{a.Id}
		}
		return a.Props.SetProperty(p.Key, v)
	default:
		return &BadParam{p}
	}
}

// resolveArgs gets the values for an invocation's parameters.
func (a *Agent) resolveArgs(ps []Param) ([]interface{}, error) {
	args := make([]interface{}, len(ps))
	for i, p := range ps {
		v, err := a.GetValue(p)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// resolveInputs makes a fresh set of variables from the input
// bindings.
func (a *Agent) resolveInputs(bs []Binding) (Bindings, error) {
	vars := make(Bindings, len(bs))
	for _, b := range bs {
		v, err := a.GetValue(b.Param)
		if err != nil {
			return nil, err
		}
		vars[b.Var] = v
	}
	return vars, nil
}

// writeOutputs drains variables through the output bindings.
func (a *Agent) writeOutputs(bs []Binding, vars Bindings) error {
	for _, b := range bs {
		v, have := vars[b.Var]
		if !have {
			return &MissingVar{b.Var}
		}
		if err := a.SetValue(b.Param, v); err != nil {
			return err
		}
	}
	return nil
}
