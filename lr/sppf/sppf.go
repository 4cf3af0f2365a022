/*
Package sppf implements a "Shared Packed Parse Forest".

A packed parse forest re-uses existing parse tree nodes between different
parse trees. For a conventional non-ambiguous parse, a parse forest degrades
to a single tree. Ambiguous grammars, on the other hand, may result in parse
runs where more than one parse tree is created. To save space these parse
trees will share common nodes.

A SymbolNode is identified by its grammar symbol and the input span it
covers; two reductions that happen to produce the same symbol over the
same span reuse the same SymbolNode (the "Shared" in SPPF). When more
than one production derives a SymbolNode, it fans out via an or-edge to
several rhsNode packing nodes — one per distinct derivation — each of
which fans out via and-edges to the SymbolNodes of its right-hand side.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package sppf

import (
	"fmt"

	"github.com/cnf/structhash"
	"github.com/npillmayer/schuko/tracing"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/iteratable"
)

// tracer traces with key 'parsekit.sppf'.
func tracer() tracing.Trace {
	return tracing.Select("parsekit.sppf")
}

// SymbolNode is a node of the parse forest, identifying a grammar symbol
// (terminal, or the LHS of a reduced rule) together with the span of
// input it covers.
type SymbolNode struct {
	Symbol *lr.Symbol
	Extent parsekit.Span
	Value  interface{} // for terminal nodes: the recognized token's value/lexeme
}

func (s *SymbolNode) String() string {
	if s == nil {
		return "<nil-symbol-node>"
	}
	return fmt.Sprintf("%s%s", s.Symbol, s.Extent)
}

func makeSym(sym *lr.Symbol) *SymbolNode {
	return &SymbolNode{Symbol: sym}
}

func (s *SymbolNode) spanning(from, to uint64) *SymbolNode {
	s.Extent = parsekit.Span{from, to}
	return s
}

// rhsNode is a packing node: one specific right-hand side (production)
// that derives some SymbolNode, over a specific span. Distinct rhsNodes
// hung off the same SymbolNode via or-edges represent an ambiguity.
type rhsNode struct {
	rule  int // serial of the production this packing node represents
	prior int // the production's disambiguation priority (lr.Rule.Prior)
}

// andEdge connects a packing node to the i-th SymbolNode of its
// right-hand side.
type andEdge struct {
	toSym    *SymbolNode
	selector int
}

// orEdge connects a SymbolNode to one of the rhsNodes deriving it.
type orEdge struct {
	toRHS *rhsNode
}

// Forest is a shared packed parse forest, built incrementally during a
// parse: every reduction either creates a new SymbolNode or folds into
// an existing one covering the same (symbol, span), packing alternative
// derivations behind or-edges.
type Forest struct {
	symbolNodes map[string]*SymbolNode // keyed by symbol-name + span
	rhsNodes    map[string]*rhsNode    // keyed by rhsSignature
	andEdges    map[*rhsNode]*iteratable.Set
	orEdges     map[*SymbolNode]*iteratable.Set
	parent      map[*SymbolNode]*SymbolNode
	root        *SymbolNode
}

// NewForest creates an empty parse forest.
func NewForest() *Forest {
	return &Forest{
		symbolNodes: make(map[string]*SymbolNode),
		rhsNodes:    make(map[string]*rhsNode),
		andEdges:    make(map[*rhsNode]*iteratable.Set),
		orEdges:     make(map[*SymbolNode]*iteratable.Set),
		parent:      make(map[*SymbolNode]*SymbolNode),
	}
}

func symKey(sym *lr.Symbol, span parsekit.Span) string {
	return fmt.Sprintf("%s@%d:%d", sym.Name, span.From(), span.To())
}

func (f *Forest) internSymbolNode(sym *lr.Symbol, span parsekit.Span) *SymbolNode {
	key := symKey(sym, span)
	if s, ok := f.symbolNodes[key]; ok {
		return s
	}
	s := makeSym(sym).spanning(span.From(), span.To())
	f.symbolNodes[key] = s
	return s
}

// AddTerminal inserts a terminal SymbolNode for a shifted token, reusing
// any existing node for the same terminal over the same span. value is
// the recognized token's value or lexeme, carried for listeners.
func (f *Forest) AddTerminal(sym *lr.Symbol, span parsekit.Span, value interface{}) *SymbolNode {
	s := f.internSymbolNode(sym, span)
	s.Value = value
	tracer().Debugf("AddTerminal %v", s)
	return s
}

// rhsSignature computes a structural signature for a production instance:
// the rule being applied plus the identity (symbol + span) of every child
// SymbolNode, so that two reductions of the same rule over the same
// children share a single rhsNode.
func rhsSignature(rhs []*SymbolNode, ruleSerial int) string {
	type childKey struct {
		Name string
		From uint64
		To   uint64
	}
	keys := make([]childKey, len(rhs))
	for i, s := range rhs {
		keys[i] = childKey{Name: s.Symbol.Name, From: s.Extent.From(), To: s.Extent.To()}
	}
	sig := struct {
		Rule     int
		Children []childKey
	}{Rule: ruleSerial, Children: keys}
	hash, err := structhash.Hash(sig, 1)
	if err != nil {
		panic(fmt.Sprintf("sppf: rhsSignature: %v", err))
	}
	return hash
}

func spanOf(rhs []*SymbolNode, fallback uint64) parsekit.Span {
	if len(rhs) == 0 {
		return parsekit.Span{fallback, fallback}
	}
	span := rhs[0].Extent
	for _, s := range rhs[1:] {
		span = span.Extend(s.Extent)
	}
	return span
}

// AddReduction inserts a reduction of rule ruleSerial (LHS = lhs, carrying
// disambiguation priority prior — see lr.Rule.Prior) over children rhs into
// the forest, returning the SymbolNode for lhs covering the reduced span.
//
// If a SymbolNode for (lhs, span) already has one or more derivations
// packed onto it, this is disambiguation at pack time: a strictly
// higher-priority derivation discards every alternative already packed;
// a strictly lower-priority derivation is itself discarded; equal
// priority packs both, recording a genuine ambiguity.
func (f *Forest) AddReduction(lhs *lr.Symbol, ruleSerial, prior int, rhs []*SymbolNode) *SymbolNode {
	span := spanOf(rhs, 0)
	sym := f.internSymbolNode(lhs, span)
	sig := rhsSignature(rhs, ruleSerial)
	rhsN, ok := f.rhsNodes[sig]
	if !ok {
		rhsN = &rhsNode{rule: ruleSerial, prior: prior}
		f.rhsNodes[sig] = rhsN
		edges := iteratable.NewSet(len(rhs))
		for i, child := range rhs {
			edges.Add(andEdge{toSym: child, selector: i})
			f.parent[child] = sym
		}
		f.andEdges[rhsN] = edges
	}
	or, ok := f.orEdges[sym]
	if !ok {
		or = iteratable.NewSet(1)
		f.orEdges[sym] = or
	}
	if or.Contains(orEdge{toRHS: rhsN}) {
		f.root = sym
		return sym
	}
	if maxPrior, any := maxPackedPriority(or); any {
		switch {
		case prior > maxPrior:
			tracer().Infof("symbol node %v: rule %d (priority %d) outranks previously packed derivation(s), discarding them", sym, ruleSerial, prior)
			for _, v := range or.Values() {
				or.Remove(v)
			}
		case prior < maxPrior:
			tracer().Infof("symbol node %v: rule %d (priority %d) outranked by previously packed derivation, discarding it at pack time", sym, ruleSerial, prior)
			f.root = sym
			return sym
		default:
			tracer().Infof("ambiguous symbol node %v: packing alternative derivation (rule %d)", sym, ruleSerial)
		}
	}
	or.Add(orEdge{toRHS: rhsN})
	f.root = sym
	tracer().Debugf("AddReduction %v <- rule %d, %d children", sym, ruleSerial, len(rhs))
	return sym
}

// maxPackedPriority returns the highest rhsNode.prior among the
// derivations already packed onto an or-edge set, or (0, false) if none.
func maxPackedPriority(or *iteratable.Set) (int, bool) {
	max := 0
	any := false
	for _, v := range or.Values() {
		if e, ok := v.(orEdge); ok {
			if !any || e.toRHS.prior > max {
				max = e.toRHS.prior
				any = true
			}
		}
	}
	return max, any
}

// AddEpsilonReduction inserts a reduction of an empty (ε) production,
// producing a zero-width SymbolNode for lhs at position pos.
func (f *Forest) AddEpsilonReduction(lhs *lr.Symbol, ruleSerial int, pos uint64) *SymbolNode {
	sym := f.internSymbolNode(lhs, parsekit.Span{pos, pos})
	sig := rhsSignature(nil, ruleSerial)
	rhsN, ok := f.rhsNodes[sig]
	if !ok {
		rhsN = &rhsNode{rule: ruleSerial}
		f.rhsNodes[sig] = rhsN
		f.andEdges[rhsN] = iteratable.NewSet(0)
	}
	or, ok := f.orEdges[sym]
	if !ok {
		or = iteratable.NewSet(1)
		f.orEdges[sym] = or
	}
	or.Add(orEdge{toRHS: rhsN})
	f.root = sym
	return sym
}

// IsAmbiguous reports whether a SymbolNode has more than one derivation
// packed onto it.
func (f *Forest) IsAmbiguous(sym *SymbolNode) bool {
	or, ok := f.orEdges[sym]
	return ok && or.Size() > 1
}
