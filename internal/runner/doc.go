// Package runner answers one user query in at most two model rounds and
// dispatches the tool calls in between.
//
// Invariant:
//   - the assistant message carrying tool calls and the user message carrying
//     their results stay adjacent, so the second round always sees both.
//   - the second round offers no tools, so it ends in a text answer.
//
// Flow:
//
//	user(text) -> assistant(tool calls) -> [approval] -> user(tool results) -> assistant(text)
package runner
