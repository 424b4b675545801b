// Package config loads, normalizes, and validates subtitler configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment fallbacks such as TOKEN and OPENAI_API_KEY. The Config type
// centralizes every knob the bot daemon and CLI need, so working directories,
// external tool binaries, and backend credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
