/*
Package glr implements a generalized LR (GLR) parser in the style of
Tomita's algorithm: where a deterministic LR(1)/LALR(1) table has an
unresolved shift/reduce or reduce/reduce conflict, this parser forks
instead of guessing, exploring every contending action over a
graph-structured stack (GSS) and packing the resulting derivations into
a shared packed parse forest (package sppf) rather than picking one
arbitrarily and failing on the others.

Like package runtime, this parser is scannerless, but unlike it, lexical
ambiguity can fork the search too: at every input position
recognizer.Recognizer.RecognizeAll returns every terminal tied for the
longest match (not Recognize's single best), and each tied token is
explored like any other forking action — a keyword that is also a
valid identifier forks the same way a genuine shift/reduce conflict
does. A strictly shorter match is still discarded outright; only ties
at the maximal length fork.

Reduces are applied to a fixed-point per generation (Tomita's
"reduce-saturate, then shift"), but — unlike the textbook algorithm —
a (node, rule) pair is reduced at most once per generation even if
further edges reaching that node are discovered afterwards by a later
reduction; grammars whose ambiguity depth exceeds what a single pass
discovers may under-explore. This is a known, named limitation, not an
oversight; see the TODO on Parse.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package glr

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/recognizer"
	"github.com/scanfree/parsekit/lr/sppf"
)

// tracer traces with key 'parsekit.glr'.
func tracer() tracing.Trace {
	return tracing.Select("parsekit.glr")
}

// ActionFunc is a semantic action invoked when rule is reduced along some
// branch of the search. Because a genuinely ambiguous parse may reduce
// the same rule more than once with different children, an ActionFunc
// may run more than once per input for the same rule.
type ActionFunc func(rule *lr.Rule, children []*sppf.SymbolNode) interface{}

// gssNode is a node of the graph-structured stack: all GSS nodes sharing
// a generation (input position) and a CFSM state are merged into one,
// with one back-edge per distinct predecessor stack.
type gssNode struct {
	id      int
	stateID uint
	gen     int
	edges   []*gssEdge
}

// gssEdge is a back-edge from a gssNode to its predecessor, labeled with
// the forest node for the symbol consumed along that edge (a terminal
// for a shift edge, a reduced nonterminal for a reduce edge).
type gssEdge struct {
	to   *gssNode
	node *sppf.SymbolNode
}

func (n *gssNode) hasEdgeTo(to *gssNode) bool {
	for _, e := range n.edges {
		if e.to == to {
			return true
		}
	}
	return false
}

// Parser is a generalized LR parser, driven by ACTION/GOTO tables built
// with lr.TableGenerator in PreserveAmbiguity mode (conflicts the
// deterministic disambiguation rules cannot resolve are kept in the
// table as a second value per cell, rather than forced to one winner).
type Parser struct {
	g       *lr.Grammar
	gotoT   *lr.Table
	actionT *lr.Table
	rec     *recognizer.Recognizer
	actions map[int]ActionFunc
	byTok   map[parsekit.TokType]*lr.Symbol
}

// NewParser creates a generalized parser for grammar g, using gotoTable
// and actionTable (built via lr.TableGenerator.CreateTables with
// PreserveAmbiguity set) and rec to recognize terminals in the input.
func NewParser(g *lr.Grammar, gotoTable, actionTable *lr.Table, rec *recognizer.Recognizer) *Parser {
	byTok := make(map[parsekit.TokType]*lr.Symbol)
	for _, t := range g.Terminals() {
		byTok[t.TokenType()] = t
	}
	byTok[lr.EndOfInput().TokenType()] = lr.EndOfInput()
	return &Parser{g: g, gotoT: gotoTable, actionT: actionTable, rec: rec, byTok: byTok}
}

// SetAction registers a semantic action to run whenever rule ruleSerial
// is reduced, on any branch of the search.
func (p *Parser) SetAction(ruleSerial int, fn ActionFunc) {
	if p.actions == nil {
		p.actions = make(map[int]ActionFunc)
	}
	p.actions[ruleSerial] = fn
}

// Parse runs a generalized parse of input starting from CFSM state S. It
// returns the shared forest every branch packed its derivations into,
// every accepted top-level derivation's root node (more than one root
// means the grammar is genuinely ambiguous over this input, not just
// locally over some substring), and an error if every branch died
// before reaching acceptance.
//
// TODO: a (gssNode, rule) pair reduces at most once per generation; a
// grammar where a later-discovered GSS edge would unlock an
// earlier-processed rule again is under-explored by this pass. None of
// the grammars this package is tested against exhibit that shape, but a
// general fix would need to track a dirty-set across the fixed-point
// instead of a one-shot visited set.
func (p *Parser) Parse(S *lr.CFSMState, input string) (*sppf.Forest, []*sppf.SymbolNode, error) {
	tracer().Debugf("~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~")
	forest := sppf.NewForest()
	nextID := 0
	newNode := func(stateID uint, gen int) *gssNode {
		nextID++
		return &gssNode{id: nextID, stateID: stateID, gen: gen}
	}
	frontier := []*gssNode{newNode(S.ID, 0)}
	pos := uint64(0)
	var roots []*sppf.SymbolNode
	var lastErr error

	for {
		expected := p.expectedAt(frontier)
		toks, err := p.rec.RecognizeAll(input, pos, expected)
		if err != nil {
			if len(roots) > 0 {
				return forest, roots, nil
			}
			return forest, nil, err
		}
		tracer().Debugf("generation at %d, %d tied token(s)", pos, len(toks))

		byState := make(map[uint]*gssNode, len(frontier))
		for _, n := range frontier {
			byState[n.stateID] = n
		}
		type pending struct {
			node *gssNode
			rule *lr.Rule
		}
		var worklist []pending
		visited := make(map[[2]int]bool)
		enqueue := func(n *gssNode, tt parsekit.TokType) {
			a1, a2 := p.actionT.Values(n.stateID, tt)
			for _, a := range [2]int32{a1, a2} {
				if a == p.actionT.NullValue() || a == lr.ShiftAction || a == lr.AcceptAction {
					continue
				}
				rule := p.g.Rule(int(a))
				key := [2]int{n.id, rule.Serial}
				if visited[key] {
					continue
				}
				visited[key] = true
				worklist = append(worklist, pending{n, rule})
			}
		}
		for _, tok := range toks {
			for _, n := range frontier {
				enqueue(n, tok.TokType())
			}
		}
		for len(worklist) > 0 {
			pd := worklist[0]
			worklist = worklist[1:]
			n := len(pd.rule.RHS())
			for _, path := range popPaths(pd.node, n) {
				var node *sppf.SymbolNode
				if n == 0 {
					node = forest.AddEpsilonReduction(pd.rule.LHS, pd.rule.Serial, pos)
				} else {
					node = forest.AddReduction(pd.rule.LHS, pd.rule.Serial, pd.rule.Prior, path.children)
				}
				if fn, ok := p.actions[pd.rule.Serial]; ok {
					node.Value = fn(pd.rule, path.children)
				} else if n == 1 {
					node.Value = path.children[0].Value
				}
				gotostate := uint(p.gotoT.Value(path.base.stateID, pd.rule.LHS.TokenType()))
				target, exists := byState[gotostate]
				if !exists {
					target = newNode(gotostate, pd.node.gen)
					byState[gotostate] = target
					frontier = append(frontier, target)
					for _, tok := range toks {
						enqueue(target, tok.TokType())
					}
				}
				if !target.hasEdgeTo(path.base) {
					target.edges = append(target.edges, &gssEdge{to: path.base, node: node})
				}
			}
		}

		nextFrontier := make(map[uint]*gssNode)
		for _, tok := range toks {
			tt := tok.TokType()
			for _, n := range frontier {
				a1, a2 := p.actionT.Values(n.stateID, tt)
				for _, a := range [2]int32{a1, a2} {
					switch a {
					case p.actionT.NullValue():
					case lr.AcceptAction:
						for _, e := range n.edges {
							roots = append(roots, e.node)
						}
					case lr.ShiftAction:
						nextstate := uint(p.gotoT.Value(n.stateID, tt))
						sym := p.byTok[tt]
						termNode := forest.AddTerminal(sym, tok.Span(), tok.Value())
						target, exists := nextFrontier[nextstate]
						if !exists {
							target = newNode(nextstate, n.gen+1)
							nextFrontier[nextstate] = target
						}
						if !target.hasEdgeTo(n) {
							target.edges = append(target.edges, &gssEdge{to: n, node: termNode})
						}
					}
				}
			}
		}
		if len(roots) > 0 {
			return forest, roots, nil
		}
		if len(nextFrontier) == 0 {
			pos0, found := pos, "<EOF>"
			if len(toks) > 0 {
				pos0 = toks[0].Span().From()
				found = toks[0].Lexeme()
			}
			lastErr = &parsekit.ParseError{
				Position: pos0,
				Found:    found,
			}
			return forest, nil, lastErr
		}
		frontier = frontier[:0]
		for _, n := range nextFrontier {
			frontier = append(frontier, n)
		}
		pos = toks[0].Span().To()
	}
}

// ParseSingle runs Parse and requires the result to be unambiguous: it
// returns the shared forest and its single root node, or a
// *parsekit.AmbiguityError naming how many derivations survived when
// Parse found more than one.
func (p *Parser) ParseSingle(S *lr.CFSMState, input string) (*sppf.Forest, *sppf.SymbolNode, error) {
	forest, roots, err := p.Parse(S, input)
	if err != nil {
		return forest, nil, err
	}
	if len(roots) > 1 {
		return forest, nil, &parsekit.AmbiguityError{Count: len(roots)}
	}
	return forest, roots[0], nil
}

// expectedAt returns the union, across every frontier node, of terminals
// (plus end-of-input) for which the ACTION table has an entry — the set
// the recognizer tries to match at this generation's input position.
func (p *Parser) expectedAt(frontier []*gssNode) []*lr.Symbol {
	seen := make(map[parsekit.TokType]bool)
	out := make([]*lr.Symbol, 0, len(p.byTok))
	for _, n := range frontier {
		for tt, sym := range p.byTok {
			if seen[tt] {
				continue
			}
			a1, a2 := p.actionT.Values(n.stateID, tt)
			if a1 != p.actionT.NullValue() || a2 != p.actionT.NullValue() {
				seen[tt] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

// popPath is one way of popping length symbols off a GSS node: the
// predecessor node reached (base) and the forest nodes consumed, in
// left-to-right order.
type popPath struct {
	base     *gssNode
	children []*sppf.SymbolNode
}

// popPaths enumerates every distinct way of walking length edges
// backwards from n — more than one when the GSS has merged (diamond)
// more than one predecessor into the same node.
func popPaths(n *gssNode, length int) []popPath {
	if length == 0 {
		return []popPath{{base: n}}
	}
	var out []popPath
	for _, e := range n.edges {
		for _, sub := range popPaths(e.to, length-1) {
			children := make([]*sppf.SymbolNode, 0, length)
			children = append(children, sub.children...)
			children = append(children, e.node)
			out = append(out, popPath{base: sub.base, children: children})
		}
	}
	return out
}
