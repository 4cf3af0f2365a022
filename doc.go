/*
Package parsekit is a scannerless LR(1)/GLR parsing toolbox.

parsekit compiles a context-free grammar — productions, terminals,
precedence and associativity — into a deterministic pushdown automaton
and runs that automaton against an input string, either deterministically
(package lr/runtime) or generally, for ambiguous grammars, using a
graph-structured stack and a shared packed parse forest (package lr/glr).
Terminals are recognized on demand at the current input position; there
is no separate tokenizer pass (package lr/recognizer).

Package structure:

■ lr: grammar model, FIRST-set analysis, LR(1) item-set / CFSM
construction (with optional LALR core merging), and ACTION/GOTO table
generation with precedence-driven conflict resolution.

■ lr/iteratable: a destructive, iterable Set type used throughout lr for
item sets and FIRST sets.

■ lr/sparse: a sparse integer matrix used to store ACTION and GOTO
tables compactly.

■ lr/recognizer: the scannerless token-recognition layer: regexp,
literal-string and custom terminal matching, longest-match tie-breaking,
and layout (whitespace/comment) skipping.

■ lr/sppf: a shared packed parse forest, able to represent every
derivation of an ambiguous parse without duplicating shared subtrees.

■ lr/runtime: the deterministic LR(1)/LALR shift-reduce loop.

■ lr/glr: the generalized (GLR) parser: a graph-structured stack driving
concurrent shift/reduce heads, packing ambiguous derivations into an
lr/sppf forest.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package parsekit
