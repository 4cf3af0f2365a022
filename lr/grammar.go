package lr

import (
	"fmt"

	"github.com/scanfree/parsekit"
	"golang.org/x/exp/slices"
)

// TerminalKind distinguishes the three ways a terminal can be recognized at
// an input position: a literal string, an anchored regular expression, or a
// caller-supplied recognizer function.
type TerminalKind int8

const (
	// StringTerminal matches a fixed literal.
	StringTerminal TerminalKind = iota
	// RegexpTerminal matches an anchored regular expression.
	RegexpTerminal
	// CustomTerminal delegates matching to a caller-supplied function.
	CustomTerminal
)

// CustomRecognizeFunc is the signature of a caller-supplied terminal
// recognizer: given the full input and a position, it returns the matched
// lexeme and whether a match occurred.
type CustomRecognizeFunc func(input string, pos uint64) (lexeme string, ok bool)

// TerminalDecl holds the recognition metadata for a terminal symbol beyond
// its bare name and token value: how to recognize it at a position, and
// its operator precedence/associativity for conflict resolution.
type TerminalDecl struct {
	Sym       *Symbol
	Kind      TerminalKind
	Pattern   string // literal text (StringTerminal) or regexp source (RegexpTerminal)
	Recognize CustomRecognizeFunc
}

// Grammar is the canonical in-memory representation of a context-free
// grammar: a set of terminals, a set of nonterminals, and a sequence of
// productions (Rule). Rule 0 is the distinguished start rule; its
// right-hand side is expected to end in the end-of-input terminal.
type Grammar struct {
	Name         string
	rules        []*Rule
	nonterminals map[string]*Symbol
	terminals    map[string]*Symbol
	termOrder    []*Symbol // declaration order, used for recognizer tie-breaking
	termDecls    map[*Symbol]*TerminalDecl
}

// StartSymbol returns the grammar's start nonterminal, i.e. the LHS of
// rule 0.
func (g *Grammar) StartSymbol() *Symbol {
	if len(g.rules) == 0 {
		return nil
	}
	return g.rules[0].LHS
}

// Rules returns all productions, in declaration order; Rules()[0] is the
// start rule.
func (g *Grammar) Rules() []*Rule {
	return g.rules
}

// Rule returns the production with the given serial number.
func (g *Grammar) Rule(serial int) *Rule {
	if serial < 0 || serial >= len(g.rules) {
		return nil
	}
	return g.rules[serial]
}

// Terminals returns every terminal symbol, in declaration order.
func (g *Grammar) Terminals() []*Symbol {
	return g.termOrder
}

// NonTerminals returns every nonterminal symbol, in an unspecified but
// stable-per-grammar order.
func (g *Grammar) NonTerminals() []*Symbol {
	names := make([]string, 0, len(g.nonterminals))
	for name := range g.nonterminals {
		names = append(names, name)
	}
	slices.Sort(names)
	syms := make([]*Symbol, len(names))
	for i, name := range names {
		syms[i] = g.nonterminals[name]
	}
	return syms
}

// EachSymbol calls fn once for every terminal and nonterminal of the
// grammar, terminals first, in the order used to size ACTION/GOTO table
// columns.
func (g *Grammar) EachSymbol(fn func(*Symbol) interface{}) {
	for _, t := range g.termOrder {
		fn(t)
	}
	for _, n := range g.NonTerminals() {
		fn(n)
	}
}

// EachNonTerminal calls fn once for every nonterminal of the grammar.
func (g *Grammar) EachNonTerminal(fn func(name string, n *Symbol) interface{}) {
	for _, n := range g.NonTerminals() {
		fn(n.Name, n)
	}
}

// FindNonTermRules returns every rule with LHS A.
func (g *Grammar) FindNonTermRules(A *Symbol) []*Rule {
	var rules []*Rule
	for _, r := range g.rules {
		if r.LHS == A {
			rules = append(rules, r)
		}
	}
	return rules
}

// TerminalDecl returns the recognition metadata declared for a terminal,
// or (nil, false) if none was declared (a bare token-typed terminal,
// matched only by a recognizer the caller supplies out of band).
func (g *Grammar) TerminalDecl(sym *Symbol) (*TerminalDecl, bool) {
	d, ok := g.termDecls[sym]
	return d, ok
}

// Terminal looks up a declared terminal by name.
func (g *Grammar) Terminal(name string) *Symbol {
	return g.terminals[name]
}

// NonTerminal looks up a declared nonterminal by name.
func (g *Grammar) NonTerminal(name string) *Symbol {
	return g.nonterminals[name]
}

// Dump logs every production of the grammar, in declaration order.
func (g *Grammar) Dump() {
	tracer().Infof("Grammar %s", g.Name)
	for i, r := range g.rules {
		tracer().Infof(r.dumpString(i))
	}
}

func (r *Rule) dumpString(inx int) string {
	return fmt.Sprintf("%3d: %s", inx, r.String())
}

// === Grammar Builder ========================================================

// GrammarBuilder assembles a Grammar rule by rule. Clients chain calls to
// LHS, N, T, and a terminating call (End, EOF, or Epsilon) per rule:
//
//	b := lr.NewGrammarBuilder("G")
//	b.LHS("S").N("A").T("a", 1).EOF()  // S -> A a EOF
//	b.LHS("A").N("B").N("D").End()     // A -> B D
//	b.LHS("B").Epsilon()               // B -> ε
//	g, err := b.Grammar()
type GrammarBuilder struct {
	g       *Grammar
	curLHS  *Symbol
	curRHS  []*Symbol
	errs    []error
	nextTok parsekit.TokType

	pendingPrior *int
	startName    string
}

// NewGrammarBuilder creates an empty grammar builder for a grammar named
// name (used only for diagnostics and Dump headers).
func NewGrammarBuilder(name string) *GrammarBuilder {
	return &GrammarBuilder{
		g: &Grammar{
			Name:         name,
			nonterminals: make(map[string]*Symbol),
			terminals:    make(map[string]*Symbol),
			termDecls:    make(map[*Symbol]*TerminalDecl),
		},
		nextTok: 1,
	}
}

func (b *GrammarBuilder) nonTerm(name string) *Symbol {
	if s, ok := b.g.nonterminals[name]; ok {
		return s
	}
	// nonterminals take distinct values below EOFType, so each gets its own
	// GOTO table column without colliding with a terminal's value
	s := &Symbol{Name: name, Kind: NonTerminalType, Value: EOFType - 1 - parsekit.TokType(len(b.g.nonterminals))}
	b.g.nonterminals[name] = s
	return s
}

func (b *GrammarBuilder) term(name string, tokVal parsekit.TokType) *Symbol {
	if s, ok := b.g.terminals[name]; ok {
		if tokVal != 0 && s.Value != tokVal {
			b.errs = append(b.errs, &parsekit.GrammarError{
				Reason: fmt.Sprintf("terminal %q redeclared with different token value (%d, was %d)",
					name, tokVal, s.Value),
				Symbol: name,
			})
		}
		return s
	}
	if tokVal == 0 {
		tokVal = b.nextTok
		b.nextTok++
	} else if tokVal >= b.nextTok {
		b.nextTok = tokVal + 1
	}
	s := &Symbol{Name: name, Kind: TerminalType, Value: tokVal, prior: DefaultPriority}
	b.g.terminals[name] = s
	b.g.termOrder = append(b.g.termOrder, s)
	return s
}

// LHS starts a new rule with the given nonterminal as its left-hand side.
func (b *GrammarBuilder) LHS(name string) *GrammarBuilder {
	b.curLHS = b.nonTerm(name)
	b.curRHS = nil
	return b
}

// N appends a nonterminal symbol to the right-hand side of the rule
// currently under construction.
func (b *GrammarBuilder) N(name string) *GrammarBuilder {
	b.curRHS = append(b.curRHS, b.nonTerm(name))
	return b
}

// T appends a terminal symbol, identified by name and dense token value,
// to the right-hand side of the rule currently under construction. A
// token value of 0 auto-assigns the next unused value. Terminals declared
// this way default to StringTerminal recognition with the terminal's own
// name as the literal to match; TRegexp and TCustom declare regexp or custom
// recognition instead, and Operator adds an operator precedence.
func (b *GrammarBuilder) T(name string, tokVal int) *GrammarBuilder {
	sym := b.term(name, parsekit.TokType(tokVal))
	if _, ok := b.g.termDecls[sym]; !ok {
		b.g.termDecls[sym] = &TerminalDecl{Sym: sym, Kind: StringTerminal, Pattern: name}
	}
	b.curRHS = append(b.curRHS, sym)
	return b
}

// TRegexp is like T, but declares the terminal to be matched by an
// anchored regular expression rather than by its literal name.
func (b *GrammarBuilder) TRegexp(name string, tokVal int, pattern string) *GrammarBuilder {
	sym := b.term(name, parsekit.TokType(tokVal))
	b.g.termDecls[sym] = &TerminalDecl{Sym: sym, Kind: RegexpTerminal, Pattern: pattern}
	b.curRHS = append(b.curRHS, sym)
	return b
}

// TCustom is like T, but declares the terminal to be matched by a
// caller-supplied recognizer function.
func (b *GrammarBuilder) TCustom(name string, tokVal int, recognize CustomRecognizeFunc) *GrammarBuilder {
	sym := b.term(name, parsekit.TokType(tokVal))
	b.g.termDecls[sym] = &TerminalDecl{Sym: sym, Kind: CustomTerminal, Recognize: recognize}
	b.curRHS = append(b.curRHS, sym)
	return b
}

// Operator declares operator precedence and associativity for a terminal
// already appended to the current right-hand side via T/TRegexp/TCustom.
// It must be called immediately after the terminal it refers to.
func (b *GrammarBuilder) Operator(prior int, assoc Assoc) *GrammarBuilder {
	if len(b.curRHS) == 0 {
		b.errs = append(b.errs, &parsekit.GrammarError{Reason: "Operator() called with empty right-hand side"})
		return b
	}
	last := b.curRHS[len(b.curRHS)-1]
	last.prior = prior
	last.assoc = assoc
	last.hasPrec = true
	return b
}

// Prior overrides the disambiguation priority of the rule currently under
// construction (default: the rightmost terminal's priority, or
// DefaultPriority if the rule has no terminal).
func (b *GrammarBuilder) Prior(prior int) *GrammarBuilder {
	b.pendingPrior = &prior
	return b
}

// Start declares name as the grammar's real start nonterminal and arranges
// for Grammar to synthesize the augmentation production AUGMENTED_START ->
// name STOP as rule 0 automatically, shifting every hand-authored rule's
// serial up by one. Callers using Start never write their own wrapper rule
// ending in EOF; name is resolved against the nonterminals referenced
// elsewhere in the grammar (it need not already exist when Start is called).
func (b *GrammarBuilder) Start(name string) *GrammarBuilder {
	b.startName = name
	return b
}

func (b *GrammarBuilder) finishRule() {
	if b.curLHS == nil {
		return
	}
	prior := DefaultPriority
	for i := len(b.curRHS) - 1; i >= 0; i-- {
		if b.curRHS[i].IsTerminal() && !b.curRHS[i].IsEOF() {
			prior = b.curRHS[i].prior
			break
		}
	}
	if b.pendingPrior != nil {
		prior = *b.pendingPrior
		b.pendingPrior = nil
	}
	r := &Rule{
		Serial: len(b.g.rules),
		LHS:    b.curLHS,
		rhs:    b.curRHS,
		Prior:  prior,
	}
	b.g.rules = append(b.g.rules, r)
	b.curLHS, b.curRHS = nil, nil
}

// End finishes the rule currently under construction.
func (b *GrammarBuilder) End() *GrammarBuilder {
	b.finishRule()
	return b
}

// EOF appends the end-of-input terminal to the right-hand side and
// finishes the rule. Used for the grammar's start rule, which must
// explicitly end in end-of-input.
func (b *GrammarBuilder) EOF() *GrammarBuilder {
	b.curRHS = append(b.curRHS, eofSymbol)
	return b.End()
}

// Epsilon finishes the rule currently under construction as an
// empty (ε) production. It is a GrammarError to call Epsilon after N/T
// calls already appended symbols to the right-hand side under
// construction: EMPTY never mixes with other symbols on the same rhs.
func (b *GrammarBuilder) Epsilon() *GrammarBuilder {
	if len(b.curRHS) > 0 {
		b.errs = append(b.errs, &parsekit.GrammarError{
			Reason: "epsilon production cannot mix EMPTY with other right-hand-side symbols",
			Symbol: b.curLHS.Name,
		})
		b.curLHS, b.curRHS = nil, nil
		return b
	}
	return b.End()
}

// Grammar finalizes the builder and returns the constructed Grammar, or a
// *GrammarError if the description is structurally invalid: an undefined
// nonterminal reference, an empty rule set, or a malformed rule 0.
func (b *GrammarBuilder) Grammar() (*Grammar, error) {
	b.finishRule()
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.g.rules) == 0 {
		return nil, &parsekit.GrammarError{Reason: "grammar has no productions"}
	}
	if b.startName != "" {
		if err := b.synthesizeAugmentedStart(); err != nil {
			return nil, err
		}
	} else if first := b.g.rules[0]; len(first.rhs) == 0 || !first.rhs[len(first.rhs)-1].IsEOF() {
		return nil, &parsekit.GrammarError{
			Reason: "rule 0 must end in end-of-input (call EOF, or build the start rule via GrammarBuilder.Start)",
			Symbol: first.LHS.Name,
		}
	}
	defined := make(map[*Symbol]bool)
	for _, r := range b.g.rules {
		defined[r.LHS] = true
	}
	for name, n := range b.g.nonterminals {
		if !defined[n] {
			return nil, &parsekit.GrammarError{Reason: "nonterminal has no production", Symbol: name}
		}
	}
	return b.g, nil
}

// synthesizeAugmentedStart prepends AUGMENTED_START -> startName STOP as
// rule 0, reassigning every previously-appended rule's serial up by one
// (see GrammarBuilder.Start).
func (b *GrammarBuilder) synthesizeAugmentedStart() error {
	start, ok := b.g.nonterminals[b.startName]
	if !ok {
		return &parsekit.GrammarError{Reason: "start symbol not declared as a nonterminal", Symbol: b.startName}
	}
	augStart := &Symbol{Name: "AUGMENTED_START", Kind: NonTerminalType}
	b.g.nonterminals[augStart.Name] = augStart
	augRule := &Rule{LHS: augStart, rhs: []*Symbol{start, eofSymbol}, Prior: DefaultPriority}
	for _, r := range b.g.rules {
		r.Serial++
	}
	b.g.rules = append([]*Rule{augRule}, b.g.rules...)
	return nil
}
