package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocfkit/ocf/internal/core/value"
)

func TestBindGreedyArity(t *testing.T) {
	params := []value.Kind{value.KindFloat, value.KindVector3}

	args, used := Bind(params, []value.Value{value.Float(1.5), value.Int(2), value.Int(3), value.Int(4)})
	require.Len(t, args, 2)
	assert.Equal(t, 4, used)
	assert.Equal(t, 1.5, args[0].Float())
	assert.Equal(t, value.Vec3{X: 2, Y: 3, Z: 4}, args[1].Vec3())

	args, used = Bind(params, []value.Value{value.Float(1.5), value.Int(2), value.Int(3)})
	assert.Equal(t, 1, used)
	assert.Equal(t, 1.5, args[0].Float())
	assert.True(t, value.Zero(value.KindVector3).Equal(args[1]))
}

func TestBindColorThreeComponents(t *testing.T) {
	args, used := Bind([]value.Kind{value.KindColor}, []value.Value{value.Float(0.1), value.Float(0.2), value.Float(0.3)})
	assert.Equal(t, 3, used)
	assert.Equal(t, value.RGBA{R: 0.1, G: 0.2, B: 0.3, A: 1}, args[0].RGBA())
}

func TestBindContinuesAfterShortParameter(t *testing.T) {
	params := []value.Kind{value.KindVector2, value.KindString}
	args, used := Bind(params, []value.Value{value.String("only")})
	assert.Equal(t, 1, used)
	assert.True(t, value.Zero(value.KindVector2).Equal(args[0]))
	assert.Equal(t, "only", args[1].Text())
}

func TestMethodCall(t *testing.T) {
	var got []value.Value
	m := NewMethod("Spawn", func(args []value.Value) { got = args }, value.KindInt, value.KindBool)
	require.NoError(t, m.Validate())

	m.Call([]value.Value{value.String("3"), value.Float(1)})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Int())
	assert.True(t, got[1].Bool())
}

func TestCellCoercesToKind(t *testing.T) {
	c := NewCell(value.Int(1))
	c.Set(value.Float(4.8))
	assert.Equal(t, value.KindInt, c.Get().Kind())
	assert.Equal(t, 4, c.Get().Int())
}

func TestMirror(t *testing.T) {
	var target float64 = 3
	local := NewCell(value.Float(0))

	a := NewAttribute("speed", value.KindFloat, local.Slot())
	assert.False(t, a.Mirrored())
	a.Target = FloatField(&target)
	require.True(t, a.Mirrored())

	a.Mirror().Pull()
	assert.Equal(t, 3.0, a.Value().Float())

	local.Set(value.Float(9))
	a.Mirror().Push()
	assert.Equal(t, 9.0, target)
}

func TestAttributeValidate(t *testing.T) {
	assert.ErrorIs(t, (&Attribute{}).Validate(), ErrEmptyName)
	assert.ErrorIs(t, (&Attribute{Name: "x"}).Validate(), ErrUnboundSlot)
}
