// Package acquire resolves the media a pipeline run starts from.
//
// Local files (typed names and downloaded uploads) are only checked for
// existence. Remote videos are fetched through a Fetcher with a height-bounded
// format selector first and, if that fails for any reason, exactly one
// unconstrained retry.
package acquire
