// Package language provides unified language code normalization and naming.
//
// Recognizer output ("english", "en", "eng"), configured subtitle targets, and
// translator requests all pass through ToISO2 so comparisons between the
// detected source language and each target use the same ISO 639-1 form.
// Display names fall back to the CLDR tables in golang.org/x/text when a code
// is not in the local table.
package language
