package models

// EntityKind distinguishes the two searchable entity types.
type EntityKind string

const (
	KindSignal EntityKind = "signal"
	KindTrend  EntityKind = "trend"
)

// Entity holds the fields shared by signals and trends.
type Entity struct {
	// ID is the numeric identifier assigned by the store.
	ID int64 `json:"id"`

	// Status is the current review status.
	Status Status `json:"status"`

	// IsDraft marks an entity that is still being written by its creator.
	IsDraft bool `json:"is_draft"`

	// Private restricts the entity to its creator, group members/admins
	// and collaborators even when approved.
	Private bool `json:"private"`

	// CreatedBy is the email of the creating user.
	CreatedBy string `json:"created_by"`

	// CreatedFor names the audience or initiative the entity was made for.
	CreatedFor string `json:"created_for,omitempty"`

	// CreatedUnit is the organizational unit of the creator.
	CreatedUnit string `json:"created_unit,omitempty"`

	// Headline is a clear and concise title.
	Headline string `json:"headline"`

	// Description is the long-form text. Headline and description feed
	// the full-text search index.
	Description string `json:"description"`

	// URL is an optional source link.
	URL string `json:"url,omitempty"`

	// Relevance explains why the entity matters.
	Relevance string `json:"relevance,omitempty"`

	// Location is the region or country of greatest relevance.
	Location string `json:"location,omitempty"`

	// Score is the novelty score (1-5), nil when unscored.
	Score *int `json:"score,omitempty"`

	// SteepPrimary is the primary STEEP+V category.
	SteepPrimary string `json:"steep_primary,omitempty"`

	// SteepSecondary lists additional STEEP+V categories.
	SteepSecondary []string `json:"steep_secondary,omitempty"`

	// SignaturePrimary is the primary signature solution.
	SignaturePrimary string `json:"signature_primary,omitempty"`

	// SignatureSecondary lists additional signature solutions.
	SignatureSecondary []string `json:"signature_secondary,omitempty"`

	// SDGs lists the relevant Sustainable Development Goals.
	SDGs []string `json:"sdgs,omitempty"`

	// Keywords holds up to a handful of plain search keywords.
	Keywords []string `json:"keywords,omitempty"`

	// CreatedAt and ModifiedAt are Unix timestamps; ModifiedBy is the
	// email of the last editor. Every mutation updates the modified pair.
	CreatedAt  int64  `json:"created_at"`
	ModifiedAt int64  `json:"modified_at"`
	ModifiedBy string `json:"modified_by"`

	// CanEdit reports whether the requesting user may modify this entity.
	// It is populated on every entity returned by the search and read
	// paths, never left to the caller to compute.
	CanEdit bool `json:"can_edit"`
}

// Anonymise masks personal information on entities served to the shared
// Visitor identity.
func (e *Entity) Anonymise() {
	const mask = "email.hidden@example.org"
	if e.CreatedBy != "" {
		e.CreatedBy = mask
	}
	if e.ModifiedBy != "" {
		e.ModifiedBy = mask
	}
}

// Signal is a single observed data point about an emerging change.
type Signal struct {
	Entity

	// ConnectedTrends holds the IDs of trends linked to this signal.
	ConnectedTrends []int64 `json:"connected_trends,omitempty"`
}

// Trend is an aggregated pattern connecting multiple signals.
type Trend struct {
	Entity

	// AssignedTo is the email of the curator responsible for the trend.
	AssignedTo string `json:"assigned_to,omitempty"`

	// TimeHorizon is the expected impact horizon.
	TimeHorizon Horizon `json:"time_horizon,omitempty"`

	// ImpactRating grades the expected impact.
	ImpactRating Rating `json:"impact_rating,omitempty"`

	// ImpactDescription elaborates on the expected impact.
	ImpactDescription string `json:"impact_description,omitempty"`

	// ConnectedSignals holds the IDs of signals linked to this trend.
	ConnectedSignals []int64 `json:"connected_signals,omitempty"`
}
