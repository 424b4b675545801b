// Package history records pipeline runs in a SQLite database so operators can
// inspect what the bot processed, what it delivered, and why runs failed.
//
// Conversation state is deliberately not stored here: a restarted bot starts
// every session from the input menu. Runs left in the running state by a crash
// are marked interrupted on the next start.
package history
