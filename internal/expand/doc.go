// Package expand turns a feeling into sermon search phrases.
//
// Input is either free text describing an emotional state or one of the
// fixed mood labels, which map to canned first-person phrases before
// expansion. The expander asks the configured LLM for a handful of short
// phrases describing the help the person needs rather than the problem
// they named. Expansion is best effort: when the model is unreachable or
// returns garbage, the search falls back to the caller's original wording.
package expand
