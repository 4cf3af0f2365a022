package runtime

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/recognizer"
	"github.com/scanfree/parsekit/lr/sppf"
)

// AUGMENTED_START ::= E EOF   (rule 0, synthesized by Start)
// E ::= E "+" T | T
// T ::= "a"
func arithGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("Arith")
	b.Start("E")
	b.LHS("E").N("E").T("+", 0).N("T").End()
	b.LHS("E").N("T").End()
	b.LHS("T").T("a", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestParseAccepts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.runtime")
	defer teardown()
	//
	g := arithGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	if lrgen.HasConflicts {
		t.Fatalf("grammar %s has unexpected conflicts: %v", g.Name, lrgen.Conflicts())
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	reductions := 0
	p.SetAction(3, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} { // T -> a
		reductions++
		return 1
	})
	p.SetAction(2, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} { // E -> T
		return children[0].Value
	})
	p.SetAction(1, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} { // E -> E "+" T
		return children[0].Value.(int) + children[2].Value.(int)
	})

	forest, ok, err := p.Parse(lrgen.CFSM().S0, "a + a + a")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected input to be accepted")
	}
	if forest.Root() == nil {
		t.Fatalf("expected a non-nil parse forest root")
	}
	if reductions != 3 {
		t.Errorf("expected T -> a to reduce 3 times, got %d", reductions)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.runtime")
	defer teardown()
	//
	g := arithGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	_, ok, err := p.Parse(lrgen.CFSM().S0, "a + + a")
	if err == nil {
		t.Fatalf("expected a syntax error for malformed input")
	}
	if ok {
		t.Fatalf("expected malformed input not to be accepted")
	}
}
