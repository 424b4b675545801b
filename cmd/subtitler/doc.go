// Package main hosts the subtitler CLI entrypoint and command graph.
//
// `subtitler run` starts the chat bot. The remaining commands operate on the
// same configuration without a running bot: one-shot processing of a local
// file or link, run history inspection, dependency checks, configuration
// scaffolding, and a test notification.
package main
