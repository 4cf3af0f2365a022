package lr

import "github.com/scanfree/parsekit/lr/iteratable"

// LRAnalysis holds the static analysis results for a grammar needed to
// construct LR tables: which nonterminals are nullable, and the FIRST set
// of every symbol. It is the entry point for CFSM/table construction
// (NewTableGenerator takes an *LRAnalysis, not a bare *Grammar).
type LRAnalysis struct {
	g        *Grammar
	nullable map[*Symbol]bool
	first    map[*Symbol]*iteratable.Set // terminal symbols only
}

// Analysis runs FIRST-set and nullability analysis on g and returns the
// result. Call this once per grammar before constructing parser tables.
func Analysis(g *Grammar) *LRAnalysis {
	ga := &LRAnalysis{
		g:        g,
		nullable: make(map[*Symbol]bool),
		first:    make(map[*Symbol]*iteratable.Set),
	}
	ga.computeNullable()
	ga.computeFirst()
	return ga
}

// Grammar returns the grammar this analysis was computed for.
func (ga *LRAnalysis) Grammar() *Grammar {
	return ga.g
}

func (ga *LRAnalysis) computeNullable() {
	changed := true
	for changed {
		changed = false
		for _, r := range ga.g.rules {
			if ga.nullable[r.LHS] {
				continue
			}
			if ruleIsNullable(r, ga.nullable) {
				ga.nullable[r.LHS] = true
				changed = true
			}
		}
	}
}

func ruleIsNullable(r *Rule, nullable map[*Symbol]bool) bool {
	if r.IsEpsilonRule() {
		return true
	}
	for _, sym := range r.rhs {
		if sym.IsTerminal() || !nullable[sym] {
			return false
		}
	}
	return true
}

// Nullable reports whether a nonterminal can derive the empty string.
func (ga *LRAnalysis) Nullable(sym *Symbol) bool {
	if sym == nil || sym.IsTerminal() {
		return sym != nil && sym.IsEpsilon()
	}
	return ga.nullable[sym]
}

func (ga *LRAnalysis) computeFirst() {
	for _, t := range ga.g.termOrder {
		ga.first[t] = iteratable.NewSet(1, t)
	}
	ga.first[eofSymbol] = iteratable.NewSet(1, eofSymbol)
	for _, n := range ga.g.NonTerminals() {
		ga.first[n] = iteratable.NewSet(0)
	}
	changed := true
	for changed {
		changed = false
		for _, r := range ga.g.rules {
			target := ga.first[r.LHS]
			before := target.Size()
			for _, sym := range r.rhs {
				target.Union(ga.first[sym])
				if !ga.Nullable(sym) {
					break
				}
			}
			if target.Size() != before {
				changed = true
			}
		}
	}
}

// First returns FIRST(N) for a single symbol: the set of terminals that
// can appear as the first symbol of some derivation of N (or of N itself,
// if N is a terminal).
func (ga *LRAnalysis) First(sym *Symbol) *iteratable.Set {
	if f, ok := ga.first[sym]; ok {
		return f
	}
	return iteratable.NewSet(0)
}

// FirstOfSequence computes FIRST(β·a): the terminals that can begin a
// derivation of the symbol sequence β followed by the terminal a. If β is
// nullable in its entirety, a itself is included. This is exactly the
// lookahead set used when computing the LR(1) closure of an item
// A -> α·Bβ, a: the new items B -> ·γ inherit lookahead FIRST(β·a).
func (ga *LRAnalysis) FirstOfSequence(beta []*Symbol, a *Symbol) *iteratable.Set {
	result := iteratable.NewSet(4)
	allNullable := true
	for _, sym := range beta {
		result.Union(ga.First(sym))
		if !ga.Nullable(sym) {
			allNullable = false
			break
		}
	}
	if allNullable && a != nil {
		result.Add(a)
	}
	return result
}
