package parsekit

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"
)

// GrammarError is returned by grammar construction when the grammar
// description is structurally invalid: an undefined symbol reference, a
// duplicate terminal name, a malformed epsilon production, or a start
// symbol that is not a declared nonterminal.
type GrammarError struct {
	Reason string
	Symbol string
}

func (e *GrammarError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("grammar error: %s", e.Reason)
	}
	return fmt.Sprintf("grammar error: %s: %q", e.Reason, e.Symbol)
}

// LRConflictError is raised by table construction in LR mode when a
// shift/reduce or reduce/reduce conflict survives precedence resolution.
type LRConflictError struct {
	State      uint
	Lookahead  string
	Productions []string
}

func (e *LRConflictError) Error() string {
	return fmt.Sprintf("unresolved conflict in state %d on lookahead %q: %s",
		e.State, e.Lookahead, strings.Join(e.Productions, " vs. "))
}

// ParseError is reported when no applicable action exists at the current
// input position. No error recovery is attempted; the caller receives a
// single, precise positional report.
type ParseError struct {
	Position uint64
	Line     int
	Column   int
	Expected []string
	Found    string
}

func (e *ParseError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("syntax error at %d:%d (offset %d): unexpected %q",
			e.Line, e.Column, e.Position, e.Found)
	}
	return fmt.Sprintf("syntax error at %d:%d (offset %d): expected one of [%s], found %q",
		e.Line, e.Column, e.Position, strings.Join(e.Expected, ", "), e.Found)
}

// AmbiguityError is raised when a GLR parse produced more than one
// derivation but the caller asked for a single tree.
type AmbiguityError struct {
	Count int
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous parse: %d distinct derivations found, a single tree was requested", e.Count)
}

// invariant reports a violated internal invariant. It is used for
// conditions that indicate a programmer error in table construction or
// runtime bookkeeping (a state referenced but never built, a malformed
// span), never for malformed user input. It always logs the violation
// and only panics if the configuration flag "panic-on-parser-stuck" is
// set — the same flag package lr's panicInvariant consults, both
// generalized from an Earley-parser `stuck()`-style helper (the Earley
// recognizer itself was dropped, see DESIGN.md).
func invariant(name string, detail string) {
	tracing.Select("parsekit").Errorf("invariant violated (%s): %s", name, detail)
	if gconf.GetBool("panic-on-parser-stuck") {
		panic(fmt.Sprintf("parsekit: invariant violated (%s): %s", name, detail))
	}
}
