// Package logs reads the bot's log file for the `subtitler logs` command: the
// last N lines, optionally filtered to one run or session, and a follow mode
// that polls for appended lines until the context ends.
package logs
