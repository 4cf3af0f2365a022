package lr

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/cnf/structhash"
	"github.com/scanfree/parsekit/lr/iteratable"
)

// Item is a canonical LR(1) item: a production with a dot position marking
// how much of its right-hand side has already been matched, plus a single
// lookahead terminal. Two items are equal iff all three components match,
// which is exactly what makes iteratable.Set's value-equality semantics
// work for item sets.
type Item struct {
	rule      *Rule
	dot       int
	lookahead *Symbol
}

// StartItem returns the initial item for the augmented start rule,
// ·r.RHS, with lookahead end-of-input, together with the rule's LHS.
func StartItem(r *Rule) (Item, *Symbol) {
	return Item{rule: r, dot: 0, lookahead: eofSymbol}, r.LHS
}

// Rule returns the production this item refers to.
func (i Item) Rule() *Rule { return i.rule }

// Lookahead returns the item's lookahead terminal.
func (i Item) Lookahead() *Symbol { return i.lookahead }

// PeekSymbol returns the symbol immediately after the dot, or nil if the
// dot has reached the end of the right-hand side (a completed item).
func (i Item) PeekSymbol() *Symbol {
	if i.dot >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot]
}

// Advance returns a new item with the dot moved one position to the
// right, keeping rule and lookahead unchanged.
func (i Item) Advance() Item {
	return Item{rule: i.rule, dot: i.dot + 1, lookahead: i.lookahead}
}

// Prefix returns the symbols of the right-hand side already consumed
// (before the dot).
func (i Item) Prefix() []*Symbol {
	return i.rule.rhs[:i.dot]
}

// Rest returns the symbols of the right-hand side strictly after the
// symbol at the dot (i.e. excluding PeekSymbol itself).
func (i Item) Rest() []*Symbol {
	if i.dot+1 >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot+1:]
}

// IsComplete reports whether the dot has reached the end of the
// right-hand side, i.e. whether reducing is possible.
func (i Item) IsComplete() bool {
	return i.dot >= len(i.rule.rhs)
}

func (i Item) String() string {
	rhs := ""
	for j, sym := range i.rule.rhs {
		if j == i.dot {
			rhs += "·"
		}
		rhs += sym.Name + " "
	}
	if i.dot >= len(i.rule.rhs) {
		rhs += "·"
	}
	return fmt.Sprintf("[%s -> %s, %s]", i.rule.LHS.Name, rhs, i.lookahead.Name)
}

func asItem(x interface{}) Item {
	return x.(Item)
}

func newItemSet() *iteratable.Set {
	return iteratable.NewSet(8)
}

// === Closure and Goto =======================================================

// closure computes the LR(1) closure of a single item.
func (ga *LRAnalysis) closure(i Item) *iteratable.Set {
	S := newItemSet()
	S.Add(i)
	return ga.closureSet(S)
}

// closureSet computes the LR(1) closure of an item set: repeatedly, for
// every item A -> α·Bβ,a in the set with B a nonterminal, add B -> ·γ,b
// for every production B -> γ and every terminal b in FIRST(β·a), until a
// fixed point is reached.
func (ga *LRAnalysis) closureSet(S *iteratable.Set) *iteratable.Set {
	C := S.Copy()
	C.IterateOnce()
	for C.Next() {
		item := asItem(C.Item())
		A := item.PeekSymbol()
		if A == nil || A.IsTerminal() {
			continue
		}
		lookaheads := ga.FirstOfSequence(item.Rest(), item.lookahead)
		for _, r := range ga.g.FindNonTermRules(A) {
			for _, la := range lookaheads.Values() {
				newItem := Item{rule: r, dot: 0, lookahead: la.(*Symbol)}
				C.Add(newItem) // Add is a no-op if newItem is already present; the
				// cursor-based Next() walk above will still reach it since Add
				// only appends to the backing slice, never reorders it.
			}
		}
	}
	return C
}

// gotoSet computes goto(I, A): advance the dot over A for every item in I
// that expects A next.
func gotoSet(closure *iteratable.Set, A *Symbol) *iteratable.Set {
	gotoset := newItemSet()
	for _, x := range closure.Values() {
		i := asItem(x)
		if i.PeekSymbol() == A {
			gotoset.Add(i.Advance())
		}
	}
	return gotoset
}

func (ga *LRAnalysis) gotoSetClosure(closure *iteratable.Set, A *Symbol) *iteratable.Set {
	gset := gotoSet(closure, A)
	gclosure := ga.closureSet(gset)
	tracer().Debugf("goto(%s) --%s--> %s", itemSetString(closure), A, itemSetString(gclosure))
	return gclosure
}

// === CFSM ====================================================================

// CFSMState is a state within the CFSM for a grammar: the (closed) set of
// LR(1) items reachable at this point in the parse.
type CFSMState struct {
	ID     uint
	items  *iteratable.Set
	Accept bool
}

type cfsmEdge struct {
	from  *CFSMState
	to    *CFSMState
	label *Symbol
}

// Items returns the item set of a CFSM state.
func (s *CFSMState) Items() *iteratable.Set {
	return s.items
}

func (s *CFSMState) isErrorState() bool {
	return s.items.Size() == 0
}

func state(id uint, iset *iteratable.Set) *CFSMState {
	s := &CFSMState{ID: id}
	if iset == nil {
		s.items = newItemSet()
	} else {
		s.items = iset
	}
	return s
}

func (s *CFSMState) String() string {
	return fmt.Sprintf("(state %d | [%d])", s.ID, s.items.Size())
}

func (s *CFSMState) containsCompletedStartRule() bool {
	for _, x := range s.items.Values() {
		i := asItem(x)
		if i.rule.Serial == 0 && i.IsComplete() {
			return true
		}
	}
	return false
}

// stateSignature computes a structural hash of a state's item set, stable
// across states with identical items irrespective of insertion order. It
// is used to key states in the lookup the TableGenerator performs while
// building the CFSM (spec's "canonical encoding... keys a dictionary").
func stateSignature(iset *iteratable.Set) string {
	type itemKey struct {
		Rule int
		Dot  int
		La   string
	}
	keys := make([]itemKey, 0, iset.Size())
	for _, x := range iset.Values() {
		i := asItem(x)
		keys = append(keys, itemKey{Rule: i.rule.Serial, Dot: i.dot, La: i.lookahead.Name})
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].Rule != keys[b].Rule {
			return keys[a].Rule < keys[b].Rule
		}
		if keys[a].Dot != keys[b].Dot {
			return keys[a].Dot < keys[b].Dot
		}
		return keys[a].La < keys[b].La
	})
	hash, err := structhash.Hash(keys, 1)
	if err != nil {
		panicInvariant("stateSignature", err)
	}
	return hash
}

func edge(from, to *CFSMState, label *Symbol) *cfsmEdge {
	return &cfsmEdge{from: from, to: to, label: label}
}

func stateComparator(s1, s2 interface{}) int {
	c1 := s1.(*CFSMState)
	c2 := s2.(*CFSMState)
	return utils.IntComparator(int(c1.ID), int(c2.ID))
}

// CFSM is the characteristic finite state machine for a grammar: the set
// of LR(1) item-set states together with the goto edges between them.
// Constructed by a TableGenerator; clients normally use it only for
// debugging (CFSM2GraphViz) or for driving a custom table-building step.
type CFSM struct {
	g           *Grammar
	states      *treeset.Set
	edges       *arraylist.List
	S0          *CFSMState
	cfsmIds     uint
	bySignature map[string]*CFSMState
}

func emptyCFSM(g *Grammar) *CFSM {
	c := &CFSM{g: g}
	c.states = treeset.NewWith(stateComparator)
	c.edges = arraylist.New()
	c.bySignature = make(map[string]*CFSMState)
	return c
}

// States returns every state of the CFSM.
func (c *CFSM) States() []*CFSMState {
	vals := c.states.Values()
	out := make([]*CFSMState, len(vals))
	for i, v := range vals {
		out[i] = v.(*CFSMState)
	}
	return out
}

func (c *CFSM) addState(iset *iteratable.Set) *CFSMState {
	sig := stateSignature(iset)
	if s, ok := c.bySignature[sig]; ok {
		return s
	}
	s := state(c.cfsmIds, iset)
	c.cfsmIds++
	c.states.Add(s)
	c.bySignature[sig] = s
	return s
}

func (c *CFSM) findStateByItems(iset *iteratable.Set) *CFSMState {
	return c.bySignature[stateSignature(iset)]
}

func (c *CFSM) addEdge(s0, s1 *CFSMState, sym *Symbol) *cfsmEdge {
	e := edge(s0, s1, sym)
	c.edges.Add(e)
	return e
}

func (c *CFSM) allEdges(s *CFSMState) []*cfsmEdge {
	it := c.edges.Iterator()
	r := make([]*cfsmEdge, 0, 2)
	for it.Next() {
		e := it.Value().(*cfsmEdge)
		if e.from == s {
			r = append(r, e)
		}
	}
	return r
}

// buildCFSM constructs the canonical LR(1) characteristic finite state
// machine for a grammar by breadth-first exploration of closure/goto,
// starting from the closure of the start item of rule 0.
func (lrgen *TableGenerator) buildCFSM() *CFSM {
	tracer().Debugf("=== build CFSM ===")
	G := lrgen.g
	cfsm := emptyCFSM(G)
	startItem, _ := StartItem(G.rules[0])
	closure0 := lrgen.ga.closure(startItem)
	cfsm.S0 = cfsm.addState(closure0)
	worklist := treeset.NewWith(stateComparator)
	worklist.Add(cfsm.S0)
	for worklist.Size() > 0 {
		s := worklist.Values()[0].(*CFSMState)
		worklist.Remove(s)
		G.EachSymbol(func(A *Symbol) interface{} {
			gclosure := lrgen.ga.gotoSetClosure(s.items, A)
			if gclosure.Empty() {
				return nil
			}
			existed := lrgen.hasState(cfsm, gclosure)
			snew := cfsm.addState(gclosure)
			if !existed {
				worklist.Add(snew)
				if snew.containsCompletedStartRule() {
					snew.Accept = true
				}
			}
			cfsm.addEdge(s, snew, A)
			return nil
		})
	}
	if lrgen.UseLALR {
		cfsm = lrgen.mergeLALRCores(cfsm)
	}
	return cfsm
}

func (lrgen *TableGenerator) hasState(c *CFSM, iset *iteratable.Set) bool {
	return c.findStateByItems(iset) != nil
}

// mergeLALRCores merges CFSM states sharing the same LR(0) core (rule, dot
// pairs, ignoring lookahead) into a single state whose item set is the
// union of the merged states' items, per spec's optional LALR
// core-merging. A reduce/reduce conflict induced purely by the merge
// (absent from each contributing canonical state) is logged as a
// diagnostic and the parser proceeds with the union of lookaheads
// (a conservative choice: it lets normal conflict resolution decide).
func (lrgen *TableGenerator) mergeLALRCores(c *CFSM) *CFSM {
	groups := make(map[string][]*CFSMState)
	var order []string
	for _, s := range c.States() {
		sig := coreSignature(s.items)
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], s)
	}
	merged := emptyCFSM(c.g)
	repOf := make(map[*CFSMState]*CFSMState) // original state -> merged representative
	newBySig := make(map[string]*CFSMState)
	for _, sig := range order {
		members := groups[sig]
		items := newItemSet()
		accept := false
		for _, m := range members {
			items.Union(m.items)
			accept = accept || m.Accept
		}
		rep := state(merged.cfsmIds, items)
		rep.Accept = accept
		merged.cfsmIds++
		merged.states.Add(rep)
		newBySig[sig] = rep
		for _, m := range members {
			repOf[m] = rep
		}
	}
	for _, sig := range order {
		merged.bySignature[stateSignature(newBySig[sig].items)] = newBySig[sig]
	}
	merged.S0 = repOf[c.S0]
	seen := make(map[[3]uint]bool)
	for _, e := range c.edgeValues() {
		from, to := repOf[e.from], repOf[e.to]
		key := [3]uint{from.ID, to.ID, uint(e.label.Value)}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged.addEdge(from, to, e.label)
	}
	for _, sig := range order {
		if len(groups[sig]) > 1 {
			tracer().Errorf("LALR core merge: %d canonical states merged into state %d (core %s)",
				len(groups[sig]), newBySig[sig].ID, sig)
		}
	}
	return merged
}

func (c *CFSM) edgeValues() []*cfsmEdge {
	it := c.edges.Iterator()
	out := make([]*cfsmEdge, 0, c.edges.Size())
	for it.Next() {
		out = append(out, it.Value().(*cfsmEdge))
	}
	return out
}

func coreSignature(iset *iteratable.Set) string {
	type coreKey struct {
		Rule int
		Dot  int
	}
	set := map[coreKey]bool{}
	for _, x := range iset.Values() {
		i := asItem(x)
		set[coreKey{Rule: i.rule.Serial, Dot: i.dot}] = true
	}
	keys := make([]coreKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].Rule != keys[b].Rule {
			return keys[a].Rule < keys[b].Rule
		}
		return keys[a].Dot < keys[b].Dot
	})
	hash, err := structhash.Hash(keys, 1)
	if err != nil {
		panicInvariant("coreSignature", err)
	}
	return hash
}

func itemSetString(S *iteratable.Set) string {
	b := "{"
	S.IterateOnce()
	first := true
	for S.Next() {
		item := asItem(S.Item())
		if first {
			b += " "
			first = false
		} else {
			b += ", "
		}
		b += item.String()
	}
	return b + " }"
}
