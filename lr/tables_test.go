package lr_test

import (
	"strconv"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/recognizer"
	"github.com/scanfree/parsekit/lr/runtime"
	"github.com/scanfree/parsekit/lr/sppf"
)

// E ::= E + E | E - E | E * E | E / E | E ^ E | ( E ) | number
// with priorities {+,-: 1 left}, {*,/: 2 left}, {^: 3 right}.
func arithPrecedenceGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("Arith")
	b.Start("E")
	b.LHS("E").N("E").T("+", 0).Operator(1, lr.AssocLeft).N("E").End()
	b.LHS("E").N("E").T("-", 0).Operator(1, lr.AssocLeft).N("E").End()
	b.LHS("E").N("E").T("*", 0).Operator(2, lr.AssocLeft).N("E").End()
	b.LHS("E").N("E").T("/", 0).Operator(2, lr.AssocLeft).N("E").End()
	b.LHS("E").N("E").T("^", 0).Operator(3, lr.AssocRight).N("E").End()
	b.LHS("E").T("(", 0).N("E").T(")", 0).End()
	b.LHS("E").TRegexp("number", 0, `[0-9]+(\.[0-9]+)?`).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestArithmeticPrecedenceResolvesAllConflicts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := arithPrecedenceGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatalf("expected every shift/reduce conflict to resolve via precedence, got: %v", err)
	}
	if lrgen.HasConflicts {
		t.Fatalf("expected every shift/reduce conflict to resolve via precedence, got: %v", lrgen.Conflicts())
	}
}

func TestArithmeticPrecedenceEvaluatesExpression(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := arithPrecedenceGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := runtime.NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	binary := func(op func(a, b float64) float64) runtime.ActionFunc {
		return func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
			a := children[0].Value.(float64)
			b := children[2].Value.(float64)
			return op(a, b)
		}
	}
	for serial, rule := range g.Rules() {
		if len(rule.RHS()) != 3 || rule.LHS.Name != "E" {
			continue
		}
		switch rule.RHS()[1].Name {
		case "+":
			p.SetAction(serial, binary(func(a, b float64) float64 { return a + b }))
		case "-":
			p.SetAction(serial, binary(func(a, b float64) float64 { return a - b }))
		case "*":
			p.SetAction(serial, binary(func(a, b float64) float64 { return a * b }))
		case "/":
			p.SetAction(serial, binary(func(a, b float64) float64 { return a / b }))
		case "^":
			p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
				a := children[0].Value.(float64)
				b := children[2].Value.(float64)
				result := 1.0
				for i := 0; i < int(b); i++ {
					result *= a
				}
				return result
			})
		}
	}
	for serial, rule := range g.Rules() {
		if len(rule.RHS()) == 3 && rule.RHS()[0].Name == "(" {
			p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
				return children[1].Value
			})
		}
		if len(rule.RHS()) == 1 && rule.RHS()[0].Name == "number" {
			p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
				v, err := strconv.ParseFloat(children[0].Value.(string), 64)
				if err != nil {
					t.Fatalf("bad number literal: %v", err)
				}
				return v
			})
		}
	}

	forest, ok, err := p.Parse(lrgen.CFSM().S0, "34 + 4.6 / 2 * 4^2^2 + 78")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected input to be accepted")
	}
	root := forest.Root()
	if root == nil {
		t.Fatalf("expected a non-nil parse forest root")
	}
	got := root.NodeValue().(float64)
	if want := 700.8; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// dangling-else: S -> if E then S | if E then S else S | x, priority tie
// resolved to the default (prefer shift), so else binds to the nearest if.
func danglingElseGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("DanglingElse")
	b.Start("Stmt")
	b.LHS("Stmt").T("if", 0).N("E").T("then", 0).N("Stmt").End()
	b.LHS("Stmt").T("if", 0).N("E").T("then", 0).N("Stmt").T("else", 0).N("Stmt").End()
	b.LHS("Stmt").T("x", 0).End()
	b.LHS("E").T("a", 0).End()
	b.LHS("E").T("b", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestDanglingElseBindsToInnerIf(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := danglingElseGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	for _, c := range lrgen.Conflicts() {
		if c.Lookahead != nil && c.Lookahead.Name == "else" && !c.Resolved {
			t.Fatalf("expected the dangling-else conflict on %q to resolve", c.Lookahead.Name)
		}
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := runtime.NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	const noElse = "no-else"
	const hasElse = "has-else"
	var innerBoundElse bool
	for serial, rule := range g.Rules() {
		if rule.LHS.Name != "Stmt" {
			continue
		}
		switch len(rule.RHS()) {
		case 4: // Stmt -> if E then Stmt
			p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
				return noElse
			})
		case 6: // Stmt -> if E then Stmt else Stmt
			p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
				if children[3].Value == noElse {
					innerBoundElse = false
				} else {
					innerBoundElse = true
				}
				return hasElse
			})
		}
	}
	forest, ok, err := p.Parse(lrgen.CFSM().S0, "if a then if b then x else x")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected input to be accepted")
	}
	if forest.Root() == nil {
		t.Fatalf("expected a non-nil parse forest root")
	}
	if forest.Root().NodeValue() != noElse {
		t.Fatalf("expected the outer statement to be the if without an else clause")
	}
	if !innerBoundElse {
		t.Fatalf("expected 'else' to bind to the inner if, not the outer one")
	}
}

// L -> L , X | X | ε
func emptyProductionGrammar(t *testing.T) *lr.Grammar {
	b := lr.NewGrammarBuilder("List")
	b.Start("L")
	b.LHS("L").N("L").T(",", 0).N("X").End()
	b.LHS("L").N("X").End()
	b.LHS("L").Epsilon()
	b.LHS("X").T("a", 0).End()
	b.LHS("X").T("b", 0).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestEmptyProductionEmptyInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := emptyProductionGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	if lrgen.HasConflicts {
		t.Fatalf("unexpected conflicts: %v", lrgen.Conflicts())
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := runtime.NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)
	forest, ok, err := p.Parse(lrgen.CFSM().S0, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected empty input to be accepted")
	}
	if forest.Root() == nil {
		t.Fatalf("expected a single derivation root for empty input")
	}
}

func TestEmptyProductionTwoLeaves(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := emptyProductionGrammar(t)
	ga := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	rec := recognizer.New(g, recognizer.NewLayout(`[ \t]+`))
	p := runtime.NewParser(g, lrgen.GotoTable(), lrgen.ActionTable(), rec)

	var leaves []string
	for serial, rule := range g.Rules() {
		if rule.LHS.Name != "X" {
			continue
		}
		lexeme := rule.RHS()[0].Name
		p.SetAction(serial, func(rule *lr.Rule, children []*sppf.SymbolNode) interface{} {
			leaves = append(leaves, lexeme)
			return nil
		})
	}
	_, ok, err := p.Parse(lrgen.CFSM().S0, "a , b")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected input to be accepted")
	}
	if len(leaves) != 2 {
		t.Fatalf("expected exactly two leaves, got %d (%v)", len(leaves), leaves)
	}
	if leaves[0] != "a" || leaves[1] != "b" {
		t.Fatalf("expected leaves in order [a b], got %v", leaves)
	}
}

func TestFirstSetIsUnionOverProductions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "parsekit.lr")
	defer teardown()
	//
	g := emptyProductionGrammar(t)
	ga := lr.Analysis(g)
	L := g.NonTerminal("L")
	first := ga.First(L)
	for _, name := range []string{"a", "b"} {
		if !first.Contains(g.Terminal(name)) {
			t.Errorf("expected FIRST(L) to contain %q", name)
		}
	}
	if !first.Contains(g.Terminal(",")) {
		t.Errorf("expected FIRST(L) to contain %q, since L is nullable and L -> L , X can begin with it", ",")
	}
	if !ga.Nullable(L) {
		t.Errorf("expected L to be nullable (the ε-production)")
	}
}
