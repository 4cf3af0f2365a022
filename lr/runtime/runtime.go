/*
Package runtime drives a deterministic LR(1)/LALR(1) shift-reduce parse
from pre-built ACTION/GOTO tables, using a scannerless recognizer.Recognizer
instead of a pull-based tokenizer: at every state the parser asks the
recognizer to match one of the terminals the ACTION table says are valid
from here, rather than the scanner eagerly producing the next token before
the parser has any say in what it expects.

Reductions are recorded into a shared packed parse forest (package sppf)
so that downstream tooling sees the same tree shape a GLR parse would
produce, even though a deterministic parse never branches.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package runtime

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
	"github.com/scanfree/parsekit/lr/recognizer"
	"github.com/scanfree/parsekit/lr/sppf"
)

// tracer traces with key 'parsekit.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("parsekit.runtime")
}

// ActionFunc is a semantic action invoked when rule is reduced. children
// holds the forest node for every right-hand-side symbol, in order; every
// shift and every reduction (ε-reductions included) produces a node, and
// reduce passes the entries on without a nil check. Its return value is
// attached to the rule's own forest node as SymbolNode.Value.
type ActionFunc func(rule *lr.Rule, children []*sppf.SymbolNode) interface{}

// We store, per stack slot, the CFSM state reached and the forest node
// produced for the symbol just shifted or reduced onto it.
type stackitem struct {
	stateID uint
	sym     *lr.Symbol
	span    parsekit.Span
	node    *sppf.SymbolNode
}

// Parser is a deterministic LR(1)/LALR(1) parser, driven by ACTION/GOTO
// tables built with lr.TableGenerator.
type Parser struct {
	g       *lr.Grammar
	gotoT   *lr.Table
	actionT *lr.Table
	rec     *recognizer.Recognizer
	actions map[int]ActionFunc
	byTok   map[parsekit.TokType]*lr.Symbol
}

// NewParser creates a deterministic parser for grammar g, using gotoTable
// and actionTable (built via lr.TableGenerator.CreateTables) and rec to
// recognize terminals in the input.
func NewParser(g *lr.Grammar, gotoTable, actionTable *lr.Table, rec *recognizer.Recognizer) *Parser {
	byTok := make(map[parsekit.TokType]*lr.Symbol)
	for _, t := range g.Terminals() {
		byTok[t.TokenType()] = t
	}
	byTok[lr.EndOfInput().TokenType()] = lr.EndOfInput()
	return &Parser{
		g:       g,
		gotoT:   gotoTable,
		actionT: actionTable,
		rec:     rec,
		byTok:   byTok,
	}
}

// SetAction registers a semantic action to run whenever rule ruleSerial
// is reduced.
func (p *Parser) SetAction(ruleSerial int, fn ActionFunc) {
	if p.actions == nil {
		p.actions = make(map[int]ActionFunc)
	}
	p.actions[ruleSerial] = fn
}

// Parse runs a full parse of input, starting from CFSM state S. It
// returns the resulting parse forest, whether the input was accepted,
// and an error if recognition failed at some position (no error
// recovery is attempted — see parsekit.ParseError).
func (p *Parser) Parse(S *lr.CFSMState, input string) (*sppf.Forest, bool, error) {
	tracer().Debugf("~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~")
	if p.g == nil || p.gotoT == nil || p.actionT == nil {
		return nil, false, fmt.Errorf("parser not fully initialized")
	}
	forest := sppf.NewForest()
	stack := make([]stackitem, 0, 512)
	stack = append(stack, stackitem{stateID: S.ID})
	tok, err := p.nextToken(S.ID, input, 0)
	if err != nil {
		return forest, false, err
	}
	for {
		top := stack[len(stack)-1]
		action := p.actionT.Value(top.stateID, tok.TokType())
		tracer().Debugf("action(%d, %s) = %d", top.stateID, p.byTok[tok.TokType()], action)
		switch {
		case action == p.actionT.NullValue():
			return forest, false, &parsekit.ParseError{
				Position: tok.Span().From(),
				Found:    tok.Lexeme(),
			}
		case action == lr.AcceptAction:
			return forest, true, nil
		case action == lr.ShiftAction:
			nextstate := uint(p.gotoT.Value(top.stateID, tok.TokType()))
			sym := p.byTok[tok.TokType()]
			node := forest.AddTerminal(sym, tok.Span(), tok.Value())
			stack = append(stack, stackitem{stateID: nextstate, sym: sym, span: tok.Span(), node: node})
			tracer().Debugf("shift %s, next state = %d", sym, nextstate)
			tok, err = p.nextToken(nextstate, input, tok.Span().To())
			if err != nil {
				return forest, false, err
			}
		default: // reduce, action holds the rule's serial number
			rule := p.g.Rule(int(action))
			var node *sppf.SymbolNode
			stack, node = p.reduce(stack, rule, forest)
			nextstate := uint(p.gotoT.Value(stack[len(stack)-1].stateID, rule.LHS.TokenType()))
			tracer().Debugf("reduced %v, next state = %d", rule, nextstate)
			stack = append(stack, stackitem{
				stateID: nextstate,
				sym:     rule.LHS,
				span:    node.Extent,
				node:    node,
			})
		}
	}
}

// reduce pops the handle for rule off the stack, inserts the reduction
// into forest, runs any registered semantic action, and returns the
// popped stack (with the handle removed) together with the new forest
// node. The caller is responsible for pushing the post-GOTO stack slot.
func (p *Parser) reduce(stack []stackitem, rule *lr.Rule, forest *sppf.Forest) ([]stackitem, *sppf.SymbolNode) {
	n := len(rule.RHS())
	var children []*sppf.SymbolNode
	if n > 0 {
		children = make([]*sppf.SymbolNode, n)
		for i := n - 1; i >= 0; i-- {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			children[i] = top.node
		}
	}
	var node *sppf.SymbolNode
	if n == 0 {
		pos := uint64(0)
		if len(stack) > 0 {
			pos = stack[len(stack)-1].span.To()
		}
		node = forest.AddEpsilonReduction(rule.LHS, rule.Serial, pos)
	} else {
		node = forest.AddReduction(rule.LHS, rule.Serial, rule.Prior, children)
	}
	if fn, ok := p.actions[rule.Serial]; ok {
		node.Value = fn(rule, children)
	} else if n == 1 {
		node.Value = children[0].Value
	}
	return stack, node
}

func (p *Parser) nextToken(stateID uint, input string, pos uint64) (parsekit.Token, error) {
	expected := p.expectedAt(stateID)
	return p.rec.Recognize(input, pos, expected)
}

// expectedAt returns every terminal (plus end-of-input) for which the
// ACTION table has an entry in state stateID — the set the recognizer is
// asked to try matching.
func (p *Parser) expectedAt(stateID uint) []*lr.Symbol {
	out := make([]*lr.Symbol, 0, len(p.byTok))
	for tt, sym := range p.byTok {
		if p.actionT.Value(stateID, tt) != p.actionT.NullValue() {
			out = append(out, sym)
		}
	}
	return out
}
