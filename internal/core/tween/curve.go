// Package tween drives timed interpolations one tick at a time. Nothing in the
// package owns a clock: the caller advances every task by the elapsed frame
// time.
package tween

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownStyle = errors.New("unknown tween style")

// Style names an easing curve.
type Style uint8

const (
	None Style = iota
	Linear
	EaseIn
	EaseOut
	EaseInOut
)

var styleNames = map[string]Style{
	"":          None,
	"none":      None,
	"linear":    Linear,
	"easein":    EaseIn,
	"easeout":   EaseOut,
	"easeinout": EaseInOut,
}

// ParseStyle resolves a style name case-insensitively. Unknown names resolve
// to None together with ErrUnknownStyle so callers can warn and apply
// immediately.
func ParseStyle(name string) (Style, error) {
	if s, ok := styleNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

func (s Style) String() string {
	switch s {
	case Linear:
		return "linear"
	case EaseIn:
		return "easeIn"
	case EaseOut:
		return "easeOut"
	case EaseInOut:
		return "easeInOut"
	default:
		return "none"
	}
}

// Eval maps linear progress t in [0,1] to eased progress.
func (s Style) Eval(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}

	switch s {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		u := -2*t + 2
		return 1 - u*u/2
	default:
		return t
	}
}
