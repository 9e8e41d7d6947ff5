// Package prompt builds the text sent to a language model for one scenario:
// the game rules, the scenario's board setup, the answer notation and the
// task, optionally followed by a hint. Default texts are embedded and can be
// replaced by files in a specs directory.
package prompt
