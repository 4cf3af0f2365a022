package lr

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr/sparse"
)

// Actions for parser ACTION tables. A reduce action is encoded as the
// ordinal number of the rule to reduce (>= 0); reducing rule 0 never
// happens explicitly (see buildActionTable), so 0 is never emitted as a
// reduce action in practice, but the encoding allows for it.
const (
	ShiftAction  = -1
	AcceptAction = -2
)

// TableGenerator constructs the CFSM and the ACTION/GOTO tables for an
// LR(1) (or, with UseLALR set, LALR(1)) parser from a grammar analysis.
type TableGenerator struct {
	g            *Grammar
	ga           *LRAnalysis
	dfa          *CFSM
	gototable    *Table
	actiontable  *Table
	HasConflicts bool

	// UseLALR requests core-merging of canonical LR(1) states sharing an
	// LR(0) core, trading table size for the (rare) possibility of an
	// induced reduce/reduce conflict; see mergeLALRCores.
	UseLALR bool

	// PreserveAmbiguity, when true, makes an unresolved conflict retain
	// both contending actions at the cell (via the underlying
	// sparse.IntMatrix's pair storage) instead of being reported and
	// left at the first-seen action. Package lr/glr sets this so its
	// generalized parser can explore every retained action instead of
	// committing to one; deterministic precedence/associativity
	// disambiguation still runs first and may still collapse a conflict
	// to a single winner; only conflicts it cannot resolve are kept
	// ambiguous, and only up to two actions per cell (the pair storage's
	// own limit — a third simultaneous candidate overwrites the second).
	PreserveAmbiguity bool

	conflicts []*ConflictReport
}

// ConflictReport records a single shift/reduce or reduce/reduce conflict
// encountered while building the ACTION table, together with how (or
// whether) it was resolved.
type ConflictReport struct {
	State      uint
	Lookahead  *Symbol
	Candidates []*Rule // rules in contention; len==1 plus a shift means shift/reduce
	Shift      bool    // true if a shift was one of the candidates
	Resolved   bool
	ResolvedAs string // "shift", "reduce <rule>", or "" if unresolved
}

// NewTableGenerator creates a new TableGenerator for a (previously
// analysed) grammar.
func NewTableGenerator(ga *LRAnalysis) *TableGenerator {
	return &TableGenerator{g: ga.Grammar(), ga: ga}
}

// CFSM returns the characteristic finite state machine for the grammar,
// building it on first access.
func (lrgen *TableGenerator) CFSM() *CFSM {
	if lrgen.dfa == nil {
		lrgen.dfa = lrgen.buildCFSM()
	}
	return lrgen.dfa
}

// GotoTable returns the GOTO table. CreateTables must be called first.
func (lrgen *TableGenerator) GotoTable() *Table {
	if lrgen.gototable == nil {
		tracer().Errorf("GOTO table not yet initialized; call CreateTables() first")
	}
	return lrgen.gototable
}

// ActionTable returns the ACTION table. CreateTables must be called first.
func (lrgen *TableGenerator) ActionTable() *Table {
	if lrgen.actiontable == nil {
		tracer().Errorf("ACTION table not yet initialized; call CreateTables() first")
	}
	return lrgen.actiontable
}

// Conflicts returns every shift/reduce or reduce/reduce conflict
// encountered while building the ACTION table, resolved or not.
func (lrgen *TableGenerator) Conflicts() []*ConflictReport {
	return lrgen.conflicts
}

// CreateTables builds the CFSM and both parser tables. In LR mode (the
// default, PreserveAmbiguity unset) a conflict surviving precedence/
// associativity/priority resolution is fatal: CreateTables returns a
// *parsekit.LRConflictError naming the first such conflict's state,
// lookahead, and contending productions. In GLR mode (PreserveAmbiguity
// set) an unresolved conflict is expected and never an error; both
// contending actions are simply kept in the table for lr/glr to explore.
func (lrgen *TableGenerator) CreateTables() error {
	lrgen.dfa = lrgen.buildCFSM()
	lrgen.gototable = lrgen.buildGotoTable()
	lrgen.actiontable, lrgen.HasConflicts = lrgen.buildActionTable()
	if lrgen.HasConflicts && !lrgen.PreserveAmbiguity {
		return lrgen.firstUnresolvedConflictError()
	}
	return nil
}

// firstUnresolvedConflictError builds a *parsekit.LRConflictError for the
// first unresolved conflict recorded during table construction, or nil if
// every conflict resolved (or none occurred).
func (lrgen *TableGenerator) firstUnresolvedConflictError() error {
	for _, c := range lrgen.conflicts {
		if !c.Resolved {
			productions := make([]string, 0, len(c.Candidates)+1)
			if c.Shift {
				productions = append(productions, "shift")
			}
			for _, r := range c.Candidates {
				productions = append(productions, r.String())
			}
			return &parsekit.LRConflictError{
				State:       c.State,
				Lookahead:   c.Lookahead.Name,
				Productions: productions,
			}
		}
	}
	return nil
}

// tokenExtent returns the inclusive [min,max] range of token-type values
// ACTION/GOTO table columns must cover. End-of-input is always included
// even though it is never a member of Grammar.Terminals() (the EOF
// pseudo-terminal is a process-wide singleton, not a declared terminal),
// since it is a legitimate shift (accept) and reduce lookahead.
func tokenExtent(g *Grammar) (parsekit.TokType, parsekit.TokType) {
	maxtok, mintok := EndOfInput().TokenType(), EndOfInput().TokenType()
	g.EachSymbol(func(A *Symbol) interface{} {
		if A.TokenType() > maxtok {
			maxtok = A.TokenType()
		} else if A.TokenType() < mintok {
			mintok = A.TokenType()
		}
		return nil
	})
	return mintok, maxtok
}

func (lrgen *TableGenerator) buildGotoTable() *Table {
	statescnt := len(lrgen.dfa.States())
	mintok, maxtok := tokenExtent(lrgen.g)
	extent := int(maxtok-mintok) + 1
	tracer().Infof("GOTO table of size %d x %d", statescnt, extent)
	matrix := sparse.NewIntMatrix(statescnt, extent, sparse.DefaultNullValue)
	gototable := &Table{matrix: matrix, mincol: mintok}
	for _, s := range lrgen.dfa.States() {
		for _, e := range lrgen.dfa.allEdges(s) {
			gototable.set(s.ID, e.label.TokenType(), int32(e.to.ID))
		}
	}
	return gototable
}

// buildActionTable iterates every item of every CFSM state. An item with a
// terminal A immediately after the dot yields a shift entry (or an accept
// entry, if A is the end-of-input terminal); a completed item (other than
// for rule 0, whose completion is represented implicitly by the preceding
// accept-shift) yields a reduce entry for the item's own lookahead
// terminal — the precision a full LR(1) item carries over SLR(1), which
// has to fall back to FOLLOW(LHS).
func (lrgen *TableGenerator) buildActionTable() (*Table, bool) {
	statescnt := len(lrgen.dfa.States())
	mintok, maxtok := tokenExtent(lrgen.g)
	extent := int(maxtok-mintok) + 1
	tracer().Infof("ACTION table of size %d x %d", statescnt, extent)
	matrix := sparse.NewIntMatrix(statescnt, extent, sparse.DefaultNullValue)
	actions := &Table{matrix: matrix, mincol: mintok}
	hasConflicts := false
	for _, state := range lrgen.dfa.States() {
		for _, v := range state.items.Values() {
			i := asItem(v)
			A := i.PeekSymbol()
			if A != nil && A.IsTerminal() {
				val := int32(ShiftAction)
				if A.IsEOF() {
					val = AcceptAction
				}
				if lrgen.setAction(actions, state, A, val, nil) {
					hasConflicts = true
				}
				continue
			}
			if A == nil && i.rule.Serial != 0 {
				if lrgen.setAction(actions, state, i.lookahead, int32(i.rule.Serial), i.rule) {
					hasConflicts = true
				}
			}
		}
	}
	lrgen.HasConflicts = hasConflicts
	return actions, hasConflicts
}

// setAction installs a single ACTION-table entry, resolving a conflict
// with any action already present at (state, lookahead). It reports
// whether an unresolved conflict remains.
func (lrgen *TableGenerator) setAction(actions *Table, state *CFSMState, lookahead *Symbol, val int32, rule *Rule) bool {
	existing := actions.Value(state.ID, lookahead.TokenType())
	if existing == actions.NullValue() {
		actions.set(state.ID, lookahead.TokenType(), val)
		return false
	}
	if existing == val {
		return false // identical action already recorded (e.g. two items agreeing to shift)
	}
	winner, resolved := lrgen.resolveConflict(state, lookahead, existing, val, rule)
	report := &ConflictReport{
		State:      state.ID,
		Lookahead:  lookahead,
		Candidates: conflictCandidates(lrgen.g, existing, val, rule),
		Shift:      existing == int32(ShiftAction) || val == int32(ShiftAction),
		Resolved:   resolved,
	}
	if resolved {
		actions.set(state.ID, lookahead.TokenType(), winner)
		if winner == int32(ShiftAction) {
			report.ResolvedAs = "shift"
		} else {
			report.ResolvedAs = fmt.Sprintf("reduce %d", winner)
		}
	} else if lrgen.PreserveAmbiguity {
		actions.add(state.ID, lookahead.TokenType(), val)
	} else {
		if lrgen.UseLALR {
			tracer().Errorf("LALR core merge induced unresolved conflict in state %d on %q", state.ID, lookahead.Name)
		} else {
			tracer().Errorf("unresolved conflict in state %d on %q", state.ID, lookahead.Name)
		}
	}
	lrgen.conflicts = append(lrgen.conflicts, report)
	return !resolved
}

// conflictCandidates resolves the two contending ACTION-table values back
// into the rules they reduce (a shift side contributes nothing), for
// reporting in ConflictReport.Candidates / LRConflictError.Productions.
func conflictCandidates(g *Grammar, existing, candidate int32, candidateRule *Rule) []*Rule {
	var out []*Rule
	if existing != int32(ShiftAction) && existing != int32(AcceptAction) {
		if r := g.Rule(int(existing)); r != nil {
			out = append(out, r)
		}
	}
	if candidateRule != nil {
		out = append(out, candidateRule)
	} else if candidate != int32(ShiftAction) && candidate != int32(AcceptAction) {
		if r := g.Rule(int(candidate)); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// resolveConflict applies precedence/associativity-based disambiguation,
// in the manner of Lemon's resolve_conflict: a shift/reduce conflict is
// resolved by comparing the shifted terminal's precedence against the
// reduced rule's designated precedence symbol (its rightmost
// non-end-of-input terminal) — but only when both symbols actually
// declared a precedence (see Symbol.HasPrecedence); a reduce/reduce
// conflict is resolved by comparing the two rules' own priorities (a
// parglare-style production-priority supplement). Ties default to shift
// (unless the rule declares NoPreferShift) or to the lowest rule serial
// (declaration order), and are reported as unresolved only when neither
// tie-break applies.
func (lrgen *TableGenerator) resolveConflict(state *CFSMState, lookahead *Symbol, existing, candidate int32, candidateRule *Rule) (int32, bool) {
	existingIsShift := existing == int32(ShiftAction) || existing == int32(AcceptAction)
	candidateIsShift := candidate == int32(ShiftAction) || candidate == int32(AcceptAction)
	switch {
	case existingIsShift && candidateIsShift:
		return existing, false // shift/shift: never happens for a deterministic item set, but guard anyway
	case existingIsShift != candidateIsShift:
		shiftVal, reduceVal := existing, candidate
		reduceRule := candidateRule
		if candidateIsShift {
			shiftVal, reduceVal = candidate, existing
			reduceRule = lrgen.g.Rule(int(existing))
		}
		return lrgen.resolveShiftReduce(lookahead, shiftVal, reduceVal, reduceRule)
	default:
		existingRule := lrgen.g.Rule(int(existing))
		return lrgen.resolveReduceReduce(existing, candidate, existingRule, candidateRule)
	}
}

func (lrgen *TableGenerator) resolveShiftReduce(shiftTerm *Symbol, shiftVal, reduceVal int32, reduceRule *Rule) (int32, bool) {
	precSym := rulePrecedenceSymbol(reduceRule)
	if shiftTerm.HasPrecedence() && precSym != nil && precSym.HasPrecedence() {
		switch {
		case shiftTerm.prior > precSym.prior:
			return shiftVal, true
		case shiftTerm.prior < precSym.prior:
			return reduceVal, true
		case shiftTerm.assoc == AssocRight:
			return shiftVal, true
		case shiftTerm.assoc == AssocLeft:
			return reduceVal, true
		default:
			return 0, false // equal precedence, no associativity: genuinely ambiguous
		}
	}
	if reduceRule != nil && reduceRule.NoPreferShift {
		return reduceVal, true
	}
	if reduceRule != nil && reduceRule.IsEpsilonRule() && reduceRule.NoPreferShiftOverEE {
		return reduceVal, true
	}
	return shiftVal, true // default: prefer shift, the conventional yacc/bison tie-break
}

func (lrgen *TableGenerator) resolveReduceReduce(existing, candidate int32, r1, r2 *Rule) (int32, bool) {
	if r1 == nil || r2 == nil {
		return 0, false
	}
	switch {
	case r1.Prior > r2.Prior:
		return existing, true
	case r1.Prior < r2.Prior:
		return candidate, true
	default:
		if r1.Serial < r2.Serial {
			return existing, true // declaration order as final tie-break
		}
		return candidate, true
	}
}

// rulePrecedenceSymbol returns the terminal whose precedence/associativity
// governs conflict resolution for rule r: its rightmost non-end-of-input
// terminal, or nil if the rule has none.
func rulePrecedenceSymbol(r *Rule) *Symbol {
	if r == nil {
		return nil
	}
	for i := len(r.rhs) - 1; i >= 0; i-- {
		if r.rhs[i].IsTerminal() && !r.rhs[i].IsEOF() {
			return r.rhs[i]
		}
	}
	return nil
}

// AcceptingStates returns every state from which shifting end-of-input
// leads directly to acceptance.
func (lrgen *TableGenerator) AcceptingStates() []uint {
	if lrgen.dfa == nil {
		tracer().Errorf("tables not yet generated; call CreateTables() first")
		return nil
	}
	acc := make([]uint, 0, 2)
	for _, s := range lrgen.dfa.States() {
		if s.Accept {
			for _, e := range lrgen.dfa.edgeValues() {
				if e.to.ID == s.ID {
					acc = append(acc, e.from.ID)
				}
			}
		}
	}
	return uniqueUints(acc)
}

// CFSM2GraphViz writes the CFSM to w in Graphviz Dot format.
func (c *CFSM) CFSM2GraphViz(w io.Writer) {
	io.WriteString(w, "digraph {\n")
	io.WriteString(w, "graph [splines=true, fontname=Helvetica, fontsize=10];\n")
	io.WriteString(w, "node [shape=Mrecord, style=filled, fontname=Helvetica, fontsize=10];\n")
	io.WriteString(w, "edge [fontname=Helvetica, fontsize=10];\n\n")
	for _, s := range c.States() {
		color := "white"
		if s.Accept {
			color = "lightgray"
		}
		fmt.Fprintf(w, "s%03d [fillcolor=%s label=\"{%03d | %s}\"]\n", s.ID, color, s.ID, itemSetString(s.items))
	}
	for _, e := range c.edgeValues() {
		fmt.Fprintf(w, "s%03d -> s%03d [label=\"%s\"]\n", e.from.ID, e.to.ID, e.label.Name)
	}
	io.WriteString(w, "}\n")
}

// Table is an ACTION or GOTO table, indexed by CFSM state ID and token
// type, stored as a sparse.IntMatrix.
type Table struct {
	matrix *sparse.IntMatrix
	mincol parsekit.TokType
}

func (t *Table) add(i uint, tt parsekit.TokType, val int32) {
	j := int(tt - t.mincol)
	if j < 0 {
		panicInvariant("Table.add", fmt.Errorf("negative column index %d", j))
		return
	}
	t.matrix.Add(int(i), j, val)
}

func (t *Table) set(i uint, tt parsekit.TokType, val int32) {
	j := int(tt - t.mincol)
	if j < 0 {
		panicInvariant("Table.set", fmt.Errorf("negative column index %d", j))
		return
	}
	t.matrix.Set(int(i), j, val)
}

// NullValue returns the table's empty-cell marker.
func (t *Table) NullValue() int32 {
	return t.matrix.NullValue()
}

// Value returns the (single) action/goto value at (state, tt).
func (t *Table) Value(i uint, tt parsekit.TokType) int32 {
	j := int(tt - t.mincol)
	if j < 0 {
		panicInvariant("Table.Value", fmt.Errorf("negative column index %d", j))
		return t.matrix.NullValue()
	}
	return t.matrix.Value(int(i), j)
}

// Values returns the (up to 2) action values at (state, tt); a second
// value is present only where PreserveAmbiguity kept two conflicting
// actions. lr/glr reads its actions this way, and the text dumps print
// both values.
func (t *Table) Values(i uint, tt parsekit.TokType) (int32, int32) {
	j := int(tt - t.mincol)
	if j < 0 {
		panicInvariant("Table.Values", fmt.Errorf("negative column index %d", j))
		return t.matrix.NullValue(), t.matrix.NullValue()
	}
	return t.matrix.Values(int(i), j)
}

func uniqueUints(in []uint) []uint {
	sort.Slice(in, func(i, j int) bool { return in[i] < in[j] })
	j := 0
	for i := 1; i < len(in); i++ {
		if in[j] == in[i] {
			continue
		}
		j++
		in[j] = in[i]
	}
	if len(in) == 0 {
		return in
	}
	return in[:j+1]
}

// ActionTableAsText writes a human-readable dump of the ACTION table to w.
func ActionTableAsText(lrgen *TableGenerator, w io.Writer) {
	tableAsText(lrgen, "ACTION", lrgen.actiontable, w)
}

// GotoTableAsText writes a human-readable dump of the GOTO table to w.
func GotoTableAsText(lrgen *TableGenerator, w io.Writer) {
	tableAsText(lrgen, "GOTO", lrgen.gototable, w)
}

func tableAsText(lrgen *TableGenerator, name string, table *Table, w io.Writer) {
	if table == nil {
		fmt.Fprintf(w, "%s table not yet created\n", name)
		return
	}
	var b bytes.Buffer
	var symvec []*Symbol
	lrgen.g.EachSymbol(func(A *Symbol) interface{} {
		symvec = append(symvec, A)
		return nil
	})
	fmt.Fprintf(&b, "%s table (%d entries)\n", name, table.matrix.ValueCount())
	b.WriteString("state")
	for _, A := range symvec {
		fmt.Fprintf(&b, "\t%s", A.Name)
	}
	b.WriteString("\n")
	for _, s := range lrgen.dfa.States() {
		fmt.Fprintf(&b, "%d", s.ID)
		for _, A := range symvec {
			v1, v2 := table.Values(s.ID, A.TokenType())
			switch {
			case v1 == table.NullValue():
				b.WriteString("\t.")
			case v2 == table.NullValue():
				fmt.Fprintf(&b, "\t%s", actionString(v1))
			default:
				fmt.Fprintf(&b, "\t%s/%s", actionString(v1), actionString(v2))
			}
		}
		b.WriteString("\n")
	}
	w.Write(b.Bytes())
}

func actionString(v int32) string {
	switch v {
	case AcceptAction:
		return "acc"
	case ShiftAction:
		return "sh"
	default:
		return fmt.Sprintf("r%d", v)
	}
}
