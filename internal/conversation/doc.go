// Package conversation drives each chat user through choosing an input,
// supplying a file or link, and receiving subtitles.
//
// A Session is a tagged variant: each state is its own struct carrying only
// the data valid in that state, so a YouTube resolution exists only on the
// processing variant of a YouTube job. Machine applies one Event to one
// session at a time; Dispatcher gives every session its own mailbox so events
// for the same chat are serialized while different chats proceed in parallel.
//
// The processing boundary catches every pipeline failure (and panics), tells
// the user what went wrong in plain words, and resets the session on every
// exit path. Operator notifications are published by the pipeline itself.
package conversation
