// Package api defines wire-format types and converters for the HTTP status
// surface and CLI JSON output. It translates history records and daemon state
// into transport-friendly DTOs so consumers never couple to internal types.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds and
// durations are reported in whole milliseconds.
package api
