package value

import (
	"math"
	"strconv"
	"strings"
)

const (
	vectorPrefix = "("
	colorPrefix  = "RGBA("
	suffix       = ")"

	// floatDigits is the fixed precision of floating components in canonical
	// strings. Preset files depend on it for lossless round trips.
	floatDigits = 8
)

// Coerce converts raw to the target kind. It never fails: nonsensical
// conversions fall back to 0, NaN, false, "" or a zero vector.
func Coerce(raw Value, target Kind) Value {
	switch target {
	case KindFloat:
		return Float(toFloat(raw))
	case KindInt:
		return Int(toInt(raw))
	case KindBool:
		return Bool(toBool(raw))
	case KindString:
		return String(raw.Text())
	}

	switch {
	case raw.kind == target:
		return raw
	case raw.kind.Compound() && raw.kind.Arity() == target.Arity():
		return FromComponents(target, raw.n[:])
	case raw.kind == KindString:
		return Parse(raw.s, target)
	}
	return Zero(target)
}

// Parse reads the canonical (or any loosely formatted) string form of a value
// of the given kind. Numbers always use '.' as the decimal separator.
func Parse(s string, k Kind) Value {
	switch k {
	case KindFloat:
		return Float(parseFloat(s))
	case KindInt:
		return Int(parseInt(s))
	case KindBool:
		return Bool(parseBool(s))
	case KindString:
		return String(s)
	case KindColor:
		return parseComponents(unwrap(s, colorPrefix), k)
	default:
		return parseComponents(unwrap(s, vectorPrefix), k)
	}
}

// String returns the canonical form used by preset files and change detection.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return formatFloat(v.n[0])
	case KindInt:
		return strconv.Itoa(int(v.n[0]))
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindString:
		return v.s
	case KindColor:
		return colorPrefix + v.joinComponents() + suffix
	default:
		return vectorPrefix + v.joinComponents() + suffix
	}
}

// EnumIndex returns the zero-based position of selected in names, or -1.
func EnumIndex(names []string, selected string) int {
	for i, n := range names {
		if n == selected {
			return i
		}
	}
	return -1
}

// Lerp interpolates from a to b with t clamped to [0,1]. Integral kinds
// truncate; non-interpolable kinds snap to b.
func Lerp(a, b Value, t float64) Value {
	b = Coerce(b, a.kind)
	if !a.kind.Interpolable() {
		return b
	}
	t = math.Max(0, math.Min(1, t))
	c := make([]float64, a.kind.Arity())
	for i := range c {
		c[i] = a.n[i] + (b.n[i]-a.n[i])*t
	}
	return FromComponents(a.kind, c)
}

func (v Value) joinComponents() string {
	parts := make([]string, v.kind.Arity())
	for i := range parts {
		if v.kind.integral() {
			parts[i] = strconv.Itoa(int(v.n[i]))
		} else {
			parts[i] = formatFloat(v.n[i])
		}
	}
	return strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', floatDigits, 64)
}

func unwrap(s, prefix string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
		return s[len(prefix) : len(s)-len(suffix)]
	}
	return s
}

func parseComponents(s string, k Kind) Value {
	parts := strings.Split(s, ",")
	c := make([]float64, 0, k.Arity())
	for i := 0; i < len(parts) && i < k.Arity(); i++ {
		if k.integral() {
			c = append(c, float64(parseInt(parts[i])))
		} else {
			c = append(c, parseFloat(parts[i]))
		}
	}
	return FromComponents(k, c)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return parseInt(s) >= 1
}

func toFloat(v Value) float64 {
	switch v.kind {
	case KindFloat, KindInt:
		return v.n[0]
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		return parseFloat(v.s)
	}
	return math.NaN()
}

func toInt(v Value) int {
	switch v.kind {
	case KindFloat, KindInt:
		f := v.n[0]
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(f)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		return parseInt(v.s)
	}
	return 0
}

func toBool(v Value) bool {
	switch v.kind {
	case KindFloat, KindInt:
		return v.n[0] >= 1
	case KindBool:
		return v.b
	case KindString:
		return parseBool(v.s)
	}
	return false
}
