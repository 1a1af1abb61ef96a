/*

Process of compilation

Shader Assembly Text ->
	assemble ->
Token Stream (tokens) ->
	scan + lower ->
SSA Instruction Graph (ir) ->
	flatten -> cp -> depth -> sched -> layout ->
Scheduled Instruction List + Register Descriptors

The token stream is the source form: declarations, immediates and
instructions with swizzles, write masks and modifiers. Lowering selects
target instructions, expands scalars over vector write masks, tracks
live values across conditional scopes and merges them with phi nodes.
The back passes predicate the control flow away, clean up the copies
lowering inserted and linearize what remains.

*/
package compiler
