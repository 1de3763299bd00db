package binding

import (
	"github.com/ocfkit/ocf/internal/core/value"
)

// Invoker runs an exposed operation with positional arguments.
type Invoker func(args []value.Value)

// Method exposes one named operation.
type Method struct {
	Name   string
	Params []value.Kind
	Invoke Invoker
}

func NewMethod(name string, invoke Invoker, params ...value.Kind) *Method {
	return &Method{Name: name, Params: params, Invoke: invoke}
}

func (m *Method) Validate() error {
	if m.Name == "" {
		return ErrEmptyName
	}
	if m.Invoke == nil {
		return ErrUnboundSlot
	}
	return nil
}

// Call binds raw to the parameters and invokes the method.
func (m *Method) Call(raw []value.Value) {
	args, _ := Bind(m.Params, raw)
	m.Invoke(args)
}

// Bind assigns raw values to parameters greedily from left to right. A
// parameter consumes as many values as its kind's arity; a color takes three
// values (alpha 1) when four are not available. When too few values remain the
// parameter keeps the zero value of its kind. Bind returns the arguments and
// how many raw values were consumed.
func Bind(params []value.Kind, raw []value.Value) ([]value.Value, int) {
	args := make([]value.Value, len(params))
	next := 0
	for i, k := range params {
		args[i] = value.Zero(k)
		left := len(raw) - next

		switch {
		case !k.Compound():
			if left >= 1 {
				args[i] = value.Coerce(raw[next], k)
				next++
			}
		case left >= k.Arity():
			args[i] = value.FromComponents(k, floats(raw[next:next+k.Arity()]))
			next += k.Arity()
		case k == value.KindColor && left == 3:
			c := floats(raw[next : next+3])
			args[i] = value.Color(c[0], c[1], c[2], 1)
			next += 3
		}
	}
	return args, next
}

func floats(raw []value.Value) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v.Float()
	}
	return out
}
