// Package osc adapts OSC packets to the directory: inbound messages become
// routing jobs for the tick goroutine and attribute changes are echoed back
// as feedback messages.
package osc

import (
	"strconv"
	"strings"

	gosc "github.com/hypebeast/go-osc/osc"

	"github.com/ocfkit/ocf/internal/core/value"
)

// Values converts OSC arguments. Arguments without a value equivalent (nil,
// time tags) are skipped.
func Values(args []any) []value.Value {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		if v, ok := value.Of(a); ok {
			out = append(out, v)
		}
	}
	return out
}

// Arguments flattens a value into OSC arguments: one per component, floats
// as float32 and ints as int32.
func Arguments(v value.Value) []any {
	switch v.Kind() {
	case value.KindBool:
		return []any{v.Bool()}
	case value.KindString:
		return []any{v.Text()}
	case value.KindInt, value.KindVector2Int, value.KindVector3Int:
		c := v.Components()
		out := make([]any, len(c))
		for i, x := range c {
			out[i] = int32(x)
		}
		return out
	default:
		c := v.Components()
		out := make([]any, len(c))
		for i, x := range c {
			out[i] = float32(x)
		}
		return out
	}
}

// ParseArgument types a command line argument: integers become int32, other
// numbers float32, true/false booleans and anything else a string.
func ParseArgument(s string) any {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(i)
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return float32(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// Messages flattens a packet, bundles included, into its messages in order.
func Messages(p gosc.Packet) []*gosc.Message {
	switch t := p.(type) {
	case *gosc.Message:
		return []*gosc.Message{t}
	case *gosc.Bundle:
		out := append([]*gosc.Message(nil), t.Messages...)
		for _, b := range t.Bundles {
			out = append(out, Messages(b)...)
		}
		return out
	}
	return nil
}
