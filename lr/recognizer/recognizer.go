/*
Package recognizer implements scannerless terminal recognition: given an
input string, a position and a set of terminals the grammar currently
expects, it finds the best match at that position without a separate
tokenizer pass. Recognize collapses ties to a single winner, broken by
longest match, then string literals over regular expressions, then
grammar declaration order — there is no per-terminal "prefer" flag.
RecognizeAll instead returns every terminal tied for the longest match,
for callers (package glr) that need to fork a search over lexical
ambiguity rather than resolve it eagerly.

Layout (whitespace, comments) is skipped once, greedily, before matching
a terminal, so every caller — deterministic LR runtime or every GLR head
alike — observes the same post-layout position.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package recognizer

import (
	"regexp"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/scanfree/parsekit"
	"github.com/scanfree/parsekit/lr"
)

// tracer traces with key 'parsekit.recognizer'.
func tracer() tracing.Trace {
	return tracing.Select("parsekit.recognizer")
}

// Recognizer matches terminals of a grammar against an input string at a
// given position. It is stateless across calls except for a small cache
// of compiled regular expressions.
type Recognizer struct {
	g       *lr.Grammar
	layout  *Layout
	regexps map[*lr.Symbol]*regexp.Regexp
}

// New creates a Recognizer for grammar g. layout may be nil, meaning no
// whitespace/comment skipping is performed.
func New(g *lr.Grammar, layout *Layout) *Recognizer {
	return &Recognizer{g: g, layout: layout, regexps: make(map[*lr.Symbol]*regexp.Regexp)}
}

// token is the concrete parsekit.Token implementation returned by a
// Recognizer.
type token struct {
	typ    parsekit.TokType
	lexeme string
	val    interface{}
	span   parsekit.Span
}

func (t token) TokType() parsekit.TokType { return t.typ }
func (t token) Lexeme() string            { return t.lexeme }
func (t token) Value() interface{}        { return t.val }
func (t token) Span() parsekit.Span       { return t.span }

// Recognize finds the best match for one of the expected terminals at
// position pos of input, after first skipping layout. It returns a
// *parsekit.ParseError if none of the expected terminals matches.
func (r *Recognizer) Recognize(input string, pos uint64, expected []*lr.Symbol) (parsekit.Token, error) {
	pos = r.SkipLayout(input, pos)
	type candidate struct {
		sym       *lr.Symbol
		lexeme    string
		kind      lr.TerminalKind
		declIndex int
	}
	declOrder := r.g.Terminals()
	var best *candidate
	for _, sym := range expected {
		if sym.IsEOF() {
			if pos >= uint64(len(input)) {
				return token{typ: sym.TokenType(), span: parsekit.Span{pos, pos}}, nil
			}
			continue
		}
		decl, ok := r.g.TerminalDecl(sym)
		if !ok {
			continue
		}
		lexeme, ok := r.matchOne(input, pos, decl)
		if !ok {
			continue
		}
		cand := candidate{sym: sym, lexeme: lexeme, kind: decl.Kind, declIndex: declIndexOf(declOrder, sym)}
		if best == nil || betterMatch(cand.lexeme, cand.kind, cand.declIndex, best.lexeme, best.kind, best.declIndex) {
			best = &cand
		}
	}
	if best == nil {
		return nil, &parsekit.ParseError{
			Position: pos,
			Expected: symbolNames(expected),
			Found:    foundAt(input, pos),
		}
	}
	tracer().Debugf("recognized %q as %s at %d", best.lexeme, best.sym, pos)
	return token{
		typ:    best.sym.TokenType(),
		lexeme: best.lexeme,
		val:    best.lexeme,
		span:   parsekit.Span{pos, pos + uint64(len(best.lexeme))},
	}, nil
}

// RecognizeAll finds every terminal among expected tied for the longest
// match at position pos of input, after first skipping layout — "all
// maximal matches" as opposed to Recognize's single best-of-tie-breaks
// result. Used by glr.Parser so a GLR search can fork over lexical
// ambiguity (e.g. a keyword that also matches an identifier pattern) in
// addition to grammatical ambiguity; a shorter match that Recognize's
// tie-break would have discarded outright is still discarded here, since
// a strictly shorter match is never part of a maximal parse.
func (r *Recognizer) RecognizeAll(input string, pos uint64, expected []*lr.Symbol) ([]parsekit.Token, error) {
	pos = r.SkipLayout(input, pos)
	type candidate struct {
		sym    *lr.Symbol
		lexeme string
		isEOF  bool
	}
	var cands []candidate
	for _, sym := range expected {
		if sym.IsEOF() {
			if pos >= uint64(len(input)) {
				cands = append(cands, candidate{sym: sym, isEOF: true})
			}
			continue
		}
		decl, ok := r.g.TerminalDecl(sym)
		if !ok {
			continue
		}
		lexeme, ok := r.matchOne(input, pos, decl)
		if !ok {
			continue
		}
		cands = append(cands, candidate{sym: sym, lexeme: lexeme})
	}
	if len(cands) == 0 {
		return nil, &parsekit.ParseError{
			Position: pos,
			Expected: symbolNames(expected),
			Found:    foundAt(input, pos),
		}
	}
	maxLen := 0
	for _, c := range cands {
		if len(c.lexeme) > maxLen {
			maxLen = len(c.lexeme)
		}
	}
	var toks []parsekit.Token
	for _, c := range cands {
		if c.isEOF {
			if maxLen == 0 {
				toks = append(toks, token{typ: c.sym.TokenType(), span: parsekit.Span{pos, pos}})
			}
			continue
		}
		if len(c.lexeme) != maxLen {
			continue
		}
		tracer().Debugf("recognized %q as %s at %d", c.lexeme, c.sym, pos)
		toks = append(toks, token{
			typ:    c.sym.TokenType(),
			lexeme: c.lexeme,
			val:    c.lexeme,
			span:   parsekit.Span{pos, pos + uint64(len(c.lexeme))},
		})
	}
	return toks, nil
}

func (r *Recognizer) matchOne(input string, pos uint64, decl *lr.TerminalDecl) (string, bool) {
	if pos > uint64(len(input)) {
		return "", false
	}
	rest := input[pos:]
	switch decl.Kind {
	case lr.StringTerminal:
		if strings.HasPrefix(rest, decl.Pattern) {
			return decl.Pattern, true
		}
	case lr.RegexpTerminal:
		re := r.compiled(decl)
		loc := re.FindStringIndex(rest)
		if loc != nil && loc[0] == 0 && loc[1] > 0 {
			return rest[:loc[1]], true
		}
	case lr.CustomTerminal:
		if decl.Recognize != nil {
			return decl.Recognize(input, pos)
		}
	}
	return "", false
}

func (r *Recognizer) compiled(decl *lr.TerminalDecl) *regexp.Regexp {
	if re, ok := r.regexps[decl.Sym]; ok {
		return re
	}
	re := regexp.MustCompile(`\A(?:` + decl.Pattern + `)`)
	re.Longest()
	r.regexps[decl.Sym] = re
	return re
}

// betterMatch reports whether candidate (lex1, kind1, decl1) should win
// over (lex2, kind2, decl2) under the tie-break rules: longest match,
// then string literal over regexp/custom, then declaration order.
func betterMatch(lex1 string, kind1 lr.TerminalKind, decl1 int, lex2 string, kind2 lr.TerminalKind, decl2 int) bool {
	if len(lex1) != len(lex2) {
		return len(lex1) > len(lex2)
	}
	r1, r2 := kindRank(kind1), kindRank(kind2)
	if r1 != r2 {
		return r1 < r2
	}
	return decl1 < decl2
}

func kindRank(k lr.TerminalKind) int {
	if k == lr.StringTerminal {
		return 0
	}
	return 1
}

func declIndexOf(order []*lr.Symbol, sym *lr.Symbol) int {
	for i, s := range order {
		if s == sym {
			return i
		}
	}
	return len(order)
}

func symbolNames(syms []*lr.Symbol) []string {
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = s.Name
	}
	return names
}

func foundAt(input string, pos uint64) string {
	if pos >= uint64(len(input)) {
		return "<EOF>"
	}
	end := pos + 1
	for end < uint64(len(input)) && !isRuneStart(input[end]) {
		end++
	}
	return input[pos:end]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Layout is a lightweight, flat terminal set for whitespace/comment
// skipping: a greedy loop over a fixed list of patterns, matched and
// consumed once at the Recognizer boundary. Layout is a flat pattern list
// only; layout with internal structure (e.g. nested block comments) given
// as a nested grammar is not supported.
type Layout struct {
	patterns []layoutPattern
}

type layoutPattern struct {
	kind    lr.TerminalKind
	pattern string
	re      *regexp.Regexp
}

// NewLayout creates a Layout from a set of regular expressions (e.g.
// `\s+`, `//[^\n]*`). Patterns are tried in order at every position;
// the loop stops once none match.
func NewLayout(patterns ...string) *Layout {
	l := &Layout{}
	for _, p := range patterns {
		l.patterns = append(l.patterns, layoutPattern{
			kind:    lr.RegexpTerminal,
			pattern: p,
			re:      regexp.MustCompile(`\A(?:` + p + `)`),
		})
	}
	return l
}

// SkipLayout advances pos past every greedily-matched layout pattern, in
// a loop, until no pattern matches at the current position or the input
// is exhausted. If r has no layout configured, pos is returned unchanged.
func (r *Recognizer) SkipLayout(input string, pos uint64) uint64 {
	if r.layout == nil {
		return pos
	}
	for pos < uint64(len(input)) {
		advanced := false
		for _, lp := range r.layout.patterns {
			loc := lp.re.FindStringIndex(input[pos:])
			if loc != nil && loc[0] == 0 && loc[1] > 0 {
				pos += uint64(loc[1])
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	return pos
}
