package lr

import (
	"fmt"

	"github.com/scanfree/parsekit"
)

// SymbolType distinguishes terminals from nonterminals.
type SymbolType int8

const (
	// NonTerminalType marks a Symbol as a grammar nonterminal.
	NonTerminalType SymbolType = iota
	// TerminalType marks a Symbol as a grammar terminal.
	TerminalType
)

// Well-known token-type values, reserved below zero so they never
// collide with a grammar-assigned dense terminal value.
const (
	// EpsilonType is the token type of the empty-production pseudo-symbol.
	EpsilonType parsekit.TokType = -1
	// EOFType is the token type of the end-of-input pseudo-terminal.
	EOFType parsekit.TokType = -2
)

// Symbol is a terminal or nonterminal grammar symbol. Within a Grammar,
// symbols are unique by name and are shared by pointer identity: every
// occurrence of a symbol on any right-hand side refers to the same
// *Symbol, which is what lets closure/goto compare symbols with ==.
type Symbol struct {
	Name  string
	Kind  SymbolType
	Value parsekit.TokType // dense token-type / production-index value

	prior   int // disambiguation priority ("production priority")
	assoc   Assoc
	hasPrec bool // true once Operator() declared an explicit precedence
}

// Assoc is the associativity declared for a terminal used as an operator.
type Assoc int8

const (
	// AssocNone means no associativity was declared.
	AssocNone Assoc = iota
	// AssocLeft declares left associativity.
	AssocLeft
	// AssocRight declares right associativity.
	AssocRight
)

// IsTerminal reports whether the symbol is a terminal.
func (s *Symbol) IsTerminal() bool {
	return s != nil && s.Kind == TerminalType
}

// IsEpsilon reports whether s is the distinguished empty-production symbol.
func (s *Symbol) IsEpsilon() bool {
	return s != nil && s.Value == EpsilonType
}

// IsEOF reports whether s is the distinguished end-of-input terminal.
func (s *Symbol) IsEOF() bool {
	return s != nil && s.Value == EOFType
}

// TokenType returns the dense token-type/production-index value used to
// index ACTION/GOTO table columns.
func (s *Symbol) TokenType() parsekit.TokType {
	if s == nil {
		return EpsilonType
	}
	return s.Value
}

// Associativity returns the operator associativity declared for a terminal.
func (s *Symbol) Associativity() Assoc {
	if s == nil {
		return AssocNone
	}
	return s.assoc
}

// HasPrecedence reports whether a terminal's operator precedence was
// explicitly declared via GrammarBuilder.Operator. A terminal with no
// declared precedence never takes part in precedence-based conflict
// resolution (see TableGenerator.resolveShiftReduce), regardless of the
// default Priority() value every symbol otherwise carries.
func (s *Symbol) HasPrecedence() bool {
	return s != nil && s.hasPrec
}

// Priority returns the disambiguation priority declared for a terminal or
// production-defining nonterminal occurrence.
func (s *Symbol) Priority() int {
	if s == nil {
		return DefaultPriority
	}
	return s.prior
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil-symbol>"
	}
	return s.Name
}

// DefaultPriority is the priority assigned to a production or terminal that
// does not declare one explicitly, matching parglare's grammar.py constant.
const DefaultPriority = 10

// epsilonSymbol and eofSymbol are process-wide singletons; every Grammar's
// productions reference the same two pointers for ε and end-of-input, so
// identity comparison (==) is always correct for them regardless of which
// Grammar they appear in.
var (
	epsilonSymbol = &Symbol{Name: "ε", Kind: TerminalType, Value: EpsilonType}
	eofSymbol     = &Symbol{Name: "EOF", Kind: TerminalType, Value: EOFType}
)

// Epsilon returns the distinguished empty-production symbol.
func Epsilon() *Symbol { return epsilonSymbol }

// EndOfInput returns the distinguished end-of-input terminal.
func EndOfInput() *Symbol { return eofSymbol }

// Rule is a grammar production LHS -> RHS, referenced throughout table
// construction and the parser runtimes as rule.LHS, rule.Serial, item.rule.
type Rule struct {
	Serial int       // ordinal index into Grammar.rules; rule 0 is the augmented start rule
	LHS    *Symbol
	rhs    []*Symbol

	Prior               int  // production priority, independent of operator precedence
	NoPreferShift       bool // parglare's "nops": disable default shift preference for this rule
	NoPreferShiftOverEE bool // parglare's "nopse": when this rule is an epsilon reduction competing with a shift and neither side carries usable precedence, prefer the reduce instead of the default shift
}

// RHS returns the right-hand side symbols of the rule.
func (r *Rule) RHS() []*Symbol {
	return r.rhs
}

// IsEpsilonRule reports whether the rule's right-hand side is empty (or
// consists solely of the epsilon pseudo-symbol).
func (r *Rule) IsEpsilonRule() bool {
	return len(r.rhs) == 0 || (len(r.rhs) == 1 && r.rhs[0].IsEpsilon())
}

func (r *Rule) String() string {
	b := fmt.Sprintf("%s ::=", r.LHS.Name)
	if r.IsEpsilonRule() {
		return b + " ε"
	}
	for _, sym := range r.rhs {
		b += " " + sym.Name
	}
	return b
}
