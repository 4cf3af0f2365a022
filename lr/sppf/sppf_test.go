package sppf

import (
	"fmt"
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
)

func TestSignatureDistinguishesSpans(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").N("B").End()
	b.LHS("B").T("x", 10).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	A := g.NonTerminal("A")
	s1 := makeSym(A).spanning(1, 2)
	s2 := makeSym(A).spanning(11, 12)
	s3 := makeSym(A).spanning(15, 16)
	sigma1 := rhsSignature([]*SymbolNode{s1}, 1)
	sigma2 := rhsSignature([]*SymbolNode{s2}, 1)
	sigma3 := rhsSignature([]*SymbolNode{s3}, 1)
	if sigma1 == sigma2 || sigma1 == sigma3 || sigma2 == sigma3 {
		t.Errorf("expected signatures over distinct spans to differ, got %q %q %q", sigma1, sigma2, sigma3)
	}
}

func TestSignatureStableAcrossCalls(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").T("<", 1).N("A").N("Z").T(">", 2).EOF()
	b.LHS("A").T("a", 3).End()
	b.LHS("Z").T("z", 4).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	s1 := makeSym(g.NonTerminal("A")).spanning(1, 8)
	s2 := makeSym(g.NonTerminal("Z")).spanning(8, 9)
	rhs := []*SymbolNode{s1, s2}
	sigma := rhsSignature(rhs, 0)
	again := rhsSignature(rhs, 0)
	if sigma != again {
		t.Errorf("expected rhsSignature to be stable across calls, got %q then %q", sigma, again)
	}
	differentRule := rhsSignature(rhs, 1)
	if sigma == differentRule {
		t.Errorf("expected rhsSignature to depend on rule serial")
	}
}

// S ::= A EOF , A ::= a
func TestSPPFInsert(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").T("a", 5).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelDebug)
	g.Dump()
	r2 := g.Rule(1) // A -> a
	f := NewForest()
	a := f.AddTerminal(r2.RHS()[0], parsekit.Span{0, 1}, "a")
	R := f.AddReduction(r2.LHS, r2.Serial, r2.Prior, []*SymbolNode{a})
	if R == nil {
		t.Fatalf("expected a symbol node for rule %v, got nil", g.Rule(r2.Serial))
	}
	if R.Symbol.Name != "A" {
		t.Errorf("expected reduced symbol node to be A, got %s", R.Symbol.Name)
	}
}

// S ::= A EOF ; A ::= a — reducing the same rule over the same children
// twice must intern to one SymbolNode, not create a spurious ambiguity.
func TestSPPFAmbiguous(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").T("a", 5).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	f := NewForest()
	a := f.AddTerminal(g.Terminal("a"), parsekit.Span{0, 1}, "a")
	A := f.AddReduction(g.NonTerminal("A"), 1, g.Rule(1).Prior, []*SymbolNode{a})
	S1 := f.AddReduction(g.NonTerminal("S"), 0, g.Rule(0).Prior, []*SymbolNode{A})
	S2 := f.AddReduction(g.NonTerminal("S"), 0, g.Rule(0).Prior, []*SymbolNode{A}) // same rule, same child: not a new derivation
	if S1 != S2 {
		t.Errorf("expected identical reductions to intern to the same symbol node")
	}
	if f.IsAmbiguous(S1) {
		t.Errorf("expected no ambiguity for two identical reductions")
	}
}

// Two distinct derivations of the same (symbol, span) with different
// priorities must not both survive: the higher-priority one wins at
// pack time and the node is left unambiguous.
func TestSPPFPackTimePriorityPrunesLowerDerivation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").T("a", 5).End()
	b.LHS("A").T("a", 5).Prior(20).End() // same span, higher-priority alternative derivation
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	lowRule, highRule := g.Rule(1), g.Rule(2)
	f := NewForest()
	a := f.AddTerminal(g.Terminal("a"), parsekit.Span{0, 1}, "a")
	f.AddReduction(lowRule.LHS, lowRule.Serial, lowRule.Prior, []*SymbolNode{a})
	A := f.AddReduction(highRule.LHS, highRule.Serial, highRule.Prior, []*SymbolNode{a})
	if f.IsAmbiguous(A) {
		t.Errorf("expected the lower-priority derivation to be pruned at pack time, not kept as an ambiguity")
	}
}

// The reverse order — higher-priority derivation packed first — must
// still leave the node unambiguous, discarding the later lower-priority
// one rather than keeping both.
func TestSPPFPackTimePriorityOrderIndependent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").T("a", 5).End()
	b.LHS("A").T("a", 5).Prior(20).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	lowRule, highRule := g.Rule(1), g.Rule(2)
	f := NewForest()
	a := f.AddTerminal(g.Terminal("a"), parsekit.Span{0, 1}, "a")
	f.AddReduction(highRule.LHS, highRule.Serial, highRule.Prior, []*SymbolNode{a})
	A := f.AddReduction(lowRule.LHS, lowRule.Serial, lowRule.Prior, []*SymbolNode{a})
	if f.IsAmbiguous(A) {
		t.Errorf("expected the lower-priority derivation to be discarded rather than packed alongside the higher-priority one")
	}
}

// S ::= A EOF , A ::= a — a full top-down traversal exercising Cursor/Listener.
func TestTraverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.sppf")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G")
	b.LHS("S").N("A").EOF()
	b.LHS("A").T("a", 5).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelDebug)
	g.Dump()
	r1, r2 := g.Rule(0), g.Rule(1)
	f := NewForest()
	a := f.AddTerminal(r2.RHS()[0], parsekit.Span{0, 1}, "a")
	A := f.AddReduction(r2.LHS, r2.Serial, r2.Prior, []*SymbolNode{a})
	f.AddReduction(r1.LHS, r1.Serial, r1.Prior, []*SymbolNode{A})
	if f.Root() == nil {
		t.Fatal("expected a root node, got nil")
	}
	l := &recordingListener{G: g, t: t}
	c := f.SetCursor(nil, nil)
	c.TopDown(l, LtoR, Continue)
	if !l.sawS {
		t.Errorf("expected ExitRule(S) to have been called")
	}
	if l.terminal != "a" {
		t.Errorf("expected Terminal to have seen lexeme 'a', got %q", l.terminal)
	}
}

type recordingListener struct {
	G        *lr.Grammar
	t        *testing.T
	sawS     bool
	terminal string
}

func (l *recordingListener) EnterRule(sym *lr.Symbol, rhs []*RuleNode, ctxt RuleCtxt) bool {
	if sym.IsTerminal() {
		return false
	}
	l.t.Logf("+ enter %v", sym)
	return true
}

func (l *recordingListener) ExitRule(sym *lr.Symbol, rhs []*RuleNode, ctxt RuleCtxt) interface{} {
	if sym.Name == "S" {
		l.sawS = true
	}
	l.t.Logf("- exit %v", sym)
	return nil
}

func (l *recordingListener) Terminal(tt parsekit.TokType, value interface{}, ctxt RuleCtxt) interface{} {
	if s, ok := value.(string); ok {
		l.terminal = s
	}
	return value
}

func (l *recordingListener) Conflict(sym *lr.Symbol, ctxt RuleCtxt) (int, error) {
	l.t.Error("did not expect a conflict")
	return 0, fmt.Errorf("conflict at symbol %v", sym)
}

func (l *recordingListener) MakeAttrs(*lr.Symbol) interface{} {
	return nil
}
