// Package macro provides the small piece of the quote/macro runtime that
// lives below the (out-of-scope) CST lowering stage: hygienic name
// generation for macro-introduced temporaries. Interpolated names (`$x`,
// `$(esc(x))`) are resolved entirely by the lowering stage (spec §9) and
// never touch this package; Gensym only serves the `gensym()` builtin
// programs call directly, and any non-interpolated identifier a macro's
// Constructor introduces that the lowering stage chose to route through
// it for freshness.
package macro

import (
	"strconv"

	"github.com/google/uuid"
)

// Gensym hands out symbol names guaranteed unique for the lifetime of
// the Vm that owns it, so two expansions of the same quoted template
// never collide over a temporary variable.
type Gensym struct {
	counter uint64
}

// NewGensym returns a fresh generator. One per Vm, not one per call:
// a shared, monotonically increasing counter is what keeps names from
// colliding within a single run without needing the uuid's full entropy
// for every call.
func NewGensym() *Gensym {
	return &Gensym{}
}

// Next returns a name that cannot collide with any user-written
// identifier: base (defaulting to "g" when empty) followed by a `#`
// delimiter no surface-syntax identifier can contain, plus the
// generator's own counter and a short random suffix so that two
// independently-seeded Gensym generators (e.g. two Vm instances running
// the same bytecode) still can't collide if their output is ever mixed.
func (g *Gensym) Next(base string) string {
	if base == "" {
		base = "g"
	}
	g.counter++
	suffix := uuid.New().String()[:8]
	return "##" + base + "#" + suffix + "#" + strconv.FormatUint(g.counter, 10)
}
