// Package preflight provides readiness checks for the directories and remote
// APIs subtitler depends on.
//
// The bot runs RunAll at startup and logs each failure; the `deps` command
// prints the same results next to the binary checks. Checks for optional
// backends only run when that backend is configured.
package preflight
