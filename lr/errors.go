package lr

import (
	"fmt"

	"github.com/npillmayer/schuko/gconf"
)

// panicInvariant reports a violated internal invariant and always
// returns true, so a caller can bail out of whatever it was doing
// (`if panicInvariant(...) { return ... }`) — the same shape as an
// Earley-parser `stuck()`-style helper, generalized here to the LR/GLR
// table builders since the Earley recognizer itself was dropped (see
// DESIGN.md). Used only for conditions that indicate a bug in
// table construction (a structural hash that cannot be computed, a
// column index that escaped tokenExtent's range), never for malformed
// grammars or input, which are reported as ordinary errors. It always
// logs the violation; it only panics if the configuration flag
// "panic-on-parser-stuck" is set, so a production caller that did not
// opt in gets a logged, contained failure instead of a crash.
func panicInvariant(name string, cause error) bool {
	tracer().Errorf("invariant violated (%s): %v", name, cause)
	if gconf.GetBool("panic-on-parser-stuck") {
		panic(fmt.Sprintf(`lr: invariant violated (%s): %v

Configuration flag panic-on-parser-stuck is set to true. It is aimed at
helping to debug a parser and do a post-mortem of why it got stuck.
However, if this is a production environment and you did not expect
this to panic, please unset panic-on-parser-stuck to its default
(false).`, name, cause))
	}
	return true
}
