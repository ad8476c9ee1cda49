// Package search translates faceted filter requests into ranked,
// paginated queries over the canonical store, constrained by the access
// resolver's visibility predicate.
package search

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
)

// Filters is the recognized facet configuration for a search. Across
// distinct facets predicates combine with AND; within a multi-valued
// facet the candidate values combine with OR. An empty multi-valued
// list means "no constraint on this facet", never "match nothing".
type Filters struct {
	Statuses           []models.Status
	CreatedBy          string
	CreatedFor         string
	CreatedUnit        string
	SteepPrimary       string
	SteepSecondary     []string
	SignaturePrimary   string
	SignatureSecondary []string
	SDGs               []string

	// Location matches the entity's location or the region it belongs
	// to; SecondaryLocation matches by region only; Bureau resolves
	// through the locations reference table.
	Location          string
	SecondaryLocation string
	Bureau            string

	// ScoreMin/ScoreMax bound the novelty score; zero means unbounded.
	ScoreMin int
	ScoreMax int

	// Trend-only facets. Setting them on a signal search is a
	// validation error.
	TimeHorizon  models.Horizon
	ImpactRating models.Rating
}

// Request is a fully parsed search request.
type Request struct {
	Filters Filters
	Query   string // free text; empty means match all
	Page    int
	PerPage int
}

// commonKeys lists the query keys recognized for both entity kinds.
var commonKeys = []string{
	"status", "created_by", "created_for", "created_unit",
	"steep_primary", "steep_secondary", "signature_primary", "signature_secondary",
	"sdgs", "location", "secondary_location", "bureau",
	"score_min", "score_max",
	"query", "page", "per_page",
}

var trendOnlyKeys = []string{"time_horizon", "impact_rating"}

// ParseRequest builds a Request from URL query values for the given
// entity kind. Unknown keys fail with ValidationError.
func ParseRequest(kind models.EntityKind, values url.Values) (Request, error) {
	req := Request{Page: 1, PerPage: 10}

	for key := range values {
		if !slices.Contains(commonKeys, key) &&
			!(kind == models.KindTrend && slices.Contains(trendOnlyKeys, key)) {
			return Request{}, apperr.Validationf("unknown filter %q", key)
		}
	}

	f := &req.Filters
	for _, s := range values["status"] {
		f.Statuses = append(f.Statuses, models.Status(s))
	}
	f.CreatedBy = values.Get("created_by")
	f.CreatedFor = values.Get("created_for")
	f.CreatedUnit = values.Get("created_unit")
	f.SteepPrimary = values.Get("steep_primary")
	f.SteepSecondary = values["steep_secondary"]
	f.SignaturePrimary = values.Get("signature_primary")
	f.SignatureSecondary = values["signature_secondary"]
	f.SDGs = values["sdgs"]
	f.Location = values.Get("location")
	f.SecondaryLocation = values.Get("secondary_location")
	f.Bureau = values.Get("bureau")
	f.TimeHorizon = models.Horizon(values.Get("time_horizon"))
	f.ImpactRating = models.Rating(values.Get("impact_rating"))

	var err error
	if f.ScoreMin, err = intValue(values, "score_min"); err != nil {
		return Request{}, err
	}
	if f.ScoreMax, err = intValue(values, "score_max"); err != nil {
		return Request{}, err
	}

	req.Query = strings.TrimSpace(values.Get("query"))
	if req.Page, err = intValueDefault(values, "page", 1); err != nil {
		return Request{}, err
	}
	if req.PerPage, err = intValueDefault(values, "per_page", 10); err != nil {
		return Request{}, err
	}

	if err := f.Validate(kind); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks facet values against the fixed taxonomies.
func (f *Filters) Validate(kind models.EntityKind) error {
	for _, s := range f.Statuses {
		if !models.ValidStatus(s) {
			return apperr.Validationf("unknown status %q", s)
		}
	}
	if f.SteepPrimary != "" && !slices.Contains(models.Steep, f.SteepPrimary) {
		return apperr.Validationf("unknown steep category %q", f.SteepPrimary)
	}
	for _, v := range f.SteepSecondary {
		if !slices.Contains(models.Steep, v) {
			return apperr.Validationf("unknown steep category %q", v)
		}
	}
	if f.SignaturePrimary != "" && !slices.Contains(models.Signatures, f.SignaturePrimary) {
		return apperr.Validationf("unknown signature solution %q", f.SignaturePrimary)
	}
	for _, v := range f.SignatureSecondary {
		if !slices.Contains(models.Signatures, v) {
			return apperr.Validationf("unknown signature solution %q", v)
		}
	}
	for _, v := range f.SDGs {
		if !slices.Contains(models.Goals, v) {
			return apperr.Validationf("unknown SDG %q", v)
		}
	}
	if f.ScoreMin < 0 || f.ScoreMax < 0 ||
		(f.ScoreMin != 0 && (f.ScoreMin < models.ScoreMin || f.ScoreMin > models.ScoreMax)) ||
		(f.ScoreMax != 0 && (f.ScoreMax < models.ScoreMin || f.ScoreMax > models.ScoreMax)) ||
		(f.ScoreMin != 0 && f.ScoreMax != 0 && f.ScoreMin > f.ScoreMax) {
		return apperr.Validationf("score range %d-%d out of bounds", f.ScoreMin, f.ScoreMax)
	}
	if kind != models.KindTrend {
		if f.TimeHorizon != "" || f.ImpactRating != "" {
			return apperr.Validationf("time_horizon and impact_rating apply to trends only")
		}
		return nil
	}
	if f.TimeHorizon != "" && !models.ValidHorizon(f.TimeHorizon) {
		return apperr.Validationf("unknown time horizon %q", f.TimeHorizon)
	}
	if f.ImpactRating != "" && !models.ValidRating(f.ImpactRating) {
		return apperr.Validationf("unknown impact rating %q", f.ImpactRating)
	}
	return nil
}

func intValue(values url.Values, key string) (int, error) {
	return intValueDefault(values, key, 0)
}

func intValueDefault(values url.Values, key string, fallback int) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
