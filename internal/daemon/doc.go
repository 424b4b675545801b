// Package daemon hosts the long-running bot: it holds the single-instance
// lock, marks runs left over from a previous process as interrupted, serves
// the status endpoints, and feeds chat updates through the conversation
// dispatcher until its context is cancelled.
package daemon
