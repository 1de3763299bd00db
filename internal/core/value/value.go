// Package value defines the closed set of parameter types exchanged between
// transports, controllables and preset files, and the coercion rules between
// them.
package value

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindString
	KindVector2
	KindVector2Int
	KindVector3
	KindVector3Int
	KindColor
)

var ErrUnknownKind = errors.New("unknown value kind")

var kindNames = [...]string{
	KindFloat:      "float",
	KindInt:        "int",
	KindBool:       "bool",
	KindString:     "string",
	KindVector2:    "vector2",
	KindVector2Int: "vector2int",
	KindVector3:    "vector3",
	KindVector3Int: "vector3int",
	KindColor:      "color",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind by its manifest name. Matching is case-insensitive.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Arity is the number of scalar components a value of this kind consumes from
// a raw argument list.
func (k Kind) Arity() int {
	switch k {
	case KindVector2, KindVector2Int:
		return 2
	case KindVector3, KindVector3Int:
		return 3
	case KindColor:
		return 4
	default:
		return 1
	}
}

// Compound reports whether the kind is a vector or a color.
func (k Kind) Compound() bool {
	return k.Arity() > 1
}

// Interpolable reports whether values of this kind can be tweened.
func (k Kind) Interpolable() bool {
	switch k {
	case KindBool, KindString:
		return false
	default:
		return true
	}
}

func (k Kind) integral() bool {
	return k == KindInt || k == KindVector2Int || k == KindVector3Int
}

type Vec2 struct{ X, Y float64 }

type Vec2i struct{ X, Y int }

type Vec3 struct{ X, Y, Z float64 }

type Vec3i struct{ X, Y, Z int }

type RGBA struct{ R, G, B, A float64 }

// Value is an immutable tagged union. The zero Value is the float 0.
type Value struct {
	kind Kind
	n    [4]float64
	b    bool
	s    string
}

func Float(f float64) Value { return Value{kind: KindFloat, n: [4]float64{f}} }

func Int(i int) Value { return Value{kind: KindInt, n: [4]float64{float64(i)}} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Vector2(x, y float64) Value { return Value{kind: KindVector2, n: [4]float64{x, y}} }

func Vector2Int(x, y int) Value {
	return Value{kind: KindVector2Int, n: [4]float64{float64(x), float64(y)}}
}

func Vector3(x, y, z float64) Value { return Value{kind: KindVector3, n: [4]float64{x, y, z}} }

func Vector3Int(x, y, z int) Value {
	return Value{kind: KindVector3Int, n: [4]float64{float64(x), float64(y), float64(z)}}
}

func Color(r, g, b, a float64) Value { return Value{kind: KindColor, n: [4]float64{r, g, b, a}} }

// Zero returns the default value of a kind: 0, false, "" or a zero vector.
func Zero(k Kind) Value {
	return Value{kind: k}
}

// FromComponents builds a compound (or scalar numeric) value from its scalar
// components. Integral kinds truncate.
func FromComponents(k Kind, c []float64) Value {
	v := Value{kind: k}
	for i := 0; i < k.Arity() && i < len(c); i++ {
		if k.integral() {
			v.n[i] = math.Trunc(c[i])
		} else {
			v.n[i] = c[i]
		}
	}
	return v
}

func (v Value) Kind() Kind { return v.kind }

// Components returns the numeric components of the value. Scalars return a
// single component; bool maps to 0/1 and strings to nil.
func (v Value) Components() []float64 {
	switch v.kind {
	case KindString:
		return nil
	case KindBool:
		if v.b {
			return []float64{1}
		}
		return []float64{0}
	default:
		out := make([]float64, v.kind.Arity())
		copy(out, v.n[:])
		return out
	}
}

// Float returns the value coerced to a float.
func (v Value) Float() float64 { return Coerce(v, KindFloat).n[0] }

// Int returns the value coerced to an int.
func (v Value) Int() int { return int(Coerce(v, KindInt).n[0]) }

// Bool returns the value coerced to a bool.
func (v Value) Bool() bool { return Coerce(v, KindBool).b }

// Text returns the raw string of a string value, or the canonical form of any
// other kind.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.s
	}
	return v.String()
}

func (v Value) Vec2() Vec2 {
	c := Coerce(v, KindVector2)
	return Vec2{c.n[0], c.n[1]}
}

func (v Value) Vec2i() Vec2i {
	c := Coerce(v, KindVector2Int)
	return Vec2i{int(c.n[0]), int(c.n[1])}
}

func (v Value) Vec3() Vec3 {
	c := Coerce(v, KindVector3)
	return Vec3{c.n[0], c.n[1], c.n[2]}
}

func (v Value) Vec3i() Vec3i {
	c := Coerce(v, KindVector3Int)
	return Vec3i{int(c.n[0]), int(c.n[1]), int(c.n[2])}
}

func (v Value) RGBA() RGBA {
	c := Coerce(v, KindColor)
	return RGBA{c.n[0], c.n[1], c.n[2], c.n[3]}
}

// Equal compares kind and payload. NaN floats are equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	}
	for i := 0; i < v.kind.Arity(); i++ {
		a, b := v.n[i], o.n[i]
		if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
			return false
		}
	}
	return true
}

// Of wraps a transport-native Go value. It reports false for unsupported types.
func Of(x any) (Value, bool) {
	switch t := x.(type) {
	case Value:
		return t, true
	case float32:
		return Float(float64(t)), true
	case float64:
		return Float(t), true
	case int:
		return Int(t), true
	case int32:
		return Int(int(t)), true
	case int64:
		return Int(int(t)), true
	case bool:
		return Bool(t), true
	case string:
		return String(t), true
	case []byte:
		return String(string(t)), true
	case Vec2:
		return Vector2(t.X, t.Y), true
	case Vec2i:
		return Vector2Int(t.X, t.Y), true
	case Vec3:
		return Vector3(t.X, t.Y, t.Z), true
	case Vec3i:
		return Vector3Int(t.X, t.Y, t.Z), true
	case RGBA:
		return Color(t.R, t.G, t.B, t.A), true
	}
	return Value{}, false
}
