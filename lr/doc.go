/*
Package lr implements prerequisites for LR parsing.
It is mainly intended for Markdown parsing, but may be of use for
other purposes, too.

Building a Grammar

Grammars are specified using a grammar builder object. Clients add
rules, consisting of non-terminal symbols and terminals. Terminals
carry a token value of type int. Grammars may contain epsilon-productions.

Example:

    b := lr.NewGrammarBuilder("G")
    b.LHS("S").N("A").T("a", 1).EOF()  // S  ->  A a EOF
    b.LHS("A").N("B").N("D").End()     // A  ->  B D
    b.LHS("B").T("b", 2).End()         // B  ->  b
    b.LHS("B").Epsilon()               // B  ->
    b.LHS("D").T("d", 3).End()         // D  ->  d
    b.LHS("D").Epsilon()               // D  ->

This results in the following trivial grammar:

   g, _ := b.Grammar()
   g.Dump()    // logs through the 'parsekit.lr' tracer

   Grammar G
     0: S ::= A a EOF
     1: A ::= B D
     2: B ::= b
     3: B ::= ε
     4: D ::= d
     5: D ::= ε

Static Grammar Analysis

After the grammar is complete, it has to be analysed. For this end, the
grammar is subjected to an LRAnalysis object, which computes the FIRST
set of every symbol and determines all epsilon-derivable nonterminals.
No FOLLOW sets are computed.

Although FIRST sets are mainly intended to be used for internal purposes
of constructing the parser tables, First(N) and Nullable(N) are public.
A FIRST set holds terminal symbols only; whether N derives ε is reported
by Nullable, never by a member of the set.

    ga := lr.Analysis(g)  // analyser for grammar above
    ga.Grammar().EachNonTerminal(
        func(name string, N *lr.Symbol) interface{} {                  // ad-hoc mapper function
            fmt.Printf("FIRST(%s) = %v\n", name, ga.First(N).Values()) // get FIRST-set for N
            return nil
        })

    // Output (nonterminals in name order):
    FIRST(A) = [b d]           // A, B and D are also nullable
    FIRST(B) = [b]
    FIRST(D) = [d]
    FIRST(S) = [a b d]

Parser Construction

Using grammar analysis as input, a bottom-up parser can be constructed.
First a characteristic finite state machine (CFSM) is built from the
grammar. The CFSM will then be transformed into a GOTO table and an
ACTION table for an LR(1) parser (or, with UseLALR set, an LALR(1)
parser trading table size for a small risk of an induced reduce/reduce
conflict). The CFSM is not thrown away, but made available to the
client — intended for debugging, but useful for error recovery, too.
It can be exported to Graphviz's Dot format.

Both a deterministic driver (package lr/runtime) and a generalized,
forking driver for grammars whose conflicts cannot be resolved
deterministically (package lr/glr) consume the same tables.

Example:

    lrgen := NewTableGenerator(ga)   // ga is an *LRAnalysis, see above
    if err := lrgen.CreateTables(); err != nil {
        // an unresolved conflict in LR mode; set PreserveAmbiguity and
        // use package lr/glr instead if the grammar is meant to be ambiguous
    }

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'parsekit.lr'.
func tracer() tracing.Trace {
	return tracing.Select("parsekit.lr")
}
