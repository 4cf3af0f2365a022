package glr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/recognizer"
	"github.com/scanfree/parsekit/lr/sppf"
)

// A classic example of a genuinely ambiguous grammar (Møller & Schwartzbach,
// "Static Analysis" lecture notes, the canonical minimal case for GLR): the
// string "+a-" has two distinct derivations, S -> A "-" with A -> "+" "a",
// and S -> "+" B with B -> "a" "-". A deterministic LR table cannot choose
// between them; a GLR parser explores both and reports two roots.
//
//  1: S ::= A "-"
//  2: S ::= "+" B
//  3: A ::= "+" "a"
//  4: B ::= "a" "-"
func ambiguousGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("G1")
	b.Start("S")
	b.LHS("S").N("A").T("-", 0).End()
	b.LHS("S").T("+", 0).N("B").End()
	b.LHS("A").T("+", 0).T("a", 0).End()
	b.LHS("B").T("a", 0).T("-", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestParseExploresBothDerivations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.glr")
	defer teardown()
	//
	g := ambiguousGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	lrgen.PreserveAmbiguity = true
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	if !lrgen.HasConflicts {
		t.Fatalf("expected grammar %s to have an unresolvable conflict", g.Name)
	}

	rec := recognizer.New(g, nil)
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)
	forest, roots, err := p.Parse(lrgen.CFSM().S0, "+a-")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 top-level derivations for an ambiguous input, got %d", len(roots))
	}
	if forest.Root() == nil && len(roots) == 0 {
		t.Fatalf("expected a non-empty forest")
	}
	for _, r := range roots {
		if r.Symbol.Name != "S" {
			t.Errorf("expected every root to be S, got %s", r.Symbol.Name)
		}
	}
}

func TestParseUnambiguousInputSingleRoot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.glr")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("G2")
	b.Start("E")
	b.LHS("E").N("E").T("+", 0).N("T").End()
	b.LHS("E").N("T").End()
	b.LHS("T").T("a", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	lrgen.PreserveAmbiguity = true
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}

	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	reductions := 0
	p.SetAction(3, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} { // T -> a
		reductions++
		return 1
	})

	_, roots, err := p.Parse(lrgen.CFSM().S0, "a + a")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected a single derivation for unambiguous input, got %d", len(roots))
	}
	if reductions != 2 {
		t.Errorf("expected T -> a to reduce twice, got %d", reductions)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.glr")
	defer teardown()
	//
	g := ambiguousGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	lrgen.PreserveAmbiguity = true
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	rec := recognizer.New(g, nil)
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	_, roots, err := p.Parse(lrgen.CFSM().S0, "+a+")
	if err == nil {
		t.Fatalf("expected a syntax error for malformed input")
	}
	if len(roots) != 0 {
		t.Fatalf("expected no accepted derivations for malformed input")
	}
}

// E ::= E E | a — the textbook grammar whose number of derivations for a
// run of n "a"s is the (n-1)-th Catalan number: 1, 1, 2, 5, 14, ... for
// n = 1, 2, 3, 4, 5. This counts every way of fully parenthesizing the n-1
// E E concatenations.
func catalanGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("Catalan")
	b.Start("E")
	b.LHS("E").N("E").N("E").End()
	b.LHS("E").T("a", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestParseCatalanAmbiguityCount(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.glr")
	defer teardown()
	//
	g := catalanGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	lrgen.PreserveAmbiguity = true
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	if !lrgen.HasConflicts {
		t.Fatalf("expected grammar %s to have an unresolvable conflict", g.Name)
	}

	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)
	_, roots, err := p.Parse(lrgen.CFSM().S0, "a a a")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected Catalan(2) = 2 derivations for 3 a's, got %d", len(roots))
	}
}

func TestParseSingleRaisesAmbiguityError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.glr")
	defer teardown()
	//
	g := ambiguousGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	lrgen.PreserveAmbiguity = true
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}

	rec := recognizer.New(g, nil)
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)
	_, _, err := p.ParseSingle(lrgen.CFSM().S0, "+a-")
	if err == nil {
		t.Fatalf("expected an ambiguity error for an input with two derivations")
	}
	ambErr, ok := err.(*parsekit.AmbiguityError)
	if !ok {
		t.Fatalf("expected a *parsekit.AmbiguityError, got %T (%v)", err, err)
	}
	if ambErr.Count != 2 {
		t.Errorf("expected AmbiguityError.Count == 2, got %d", ambErr.Count)
	}
}
