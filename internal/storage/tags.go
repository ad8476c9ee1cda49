package storage

// Tag kinds for the multi-valued facet relation tables. Shared between
// the store (persisting entities) and the search query builder
// (composing EXISTS predicates over the same rows).
const (
	TagSteepSecondary     = "steep_secondary"
	TagSignatureSecondary = "signature_secondary"
	TagSDG                = "sdgs"
	TagKeyword            = "keywords"
)
