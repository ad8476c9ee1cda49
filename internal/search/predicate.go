package search

import (
	"strings"
	"unicode"

	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/storage"
)

// buildPredicate translates validated filters into a WHERE fragment over
// table alias "e", plus its arguments. An empty filter set yields "1 = 1"
// so callers can always AND the result in.
func buildPredicate(kind models.EntityKind, f Filters) (string, []any) {
	var (
		parts []string
		args  []any
	)
	and := func(clause string, clauseArgs ...any) {
		parts = append(parts, clause)
		args = append(args, clauseArgs...)
	}

	if len(f.Statuses) > 0 {
		and("e.status IN ("+placeholders(len(f.Statuses))+")", statusArgs(f.Statuses)...)
	}
	if f.CreatedBy != "" {
		and("e.created_by = ?", f.CreatedBy)
	}
	if f.CreatedFor != "" {
		and("e.created_for = ?", f.CreatedFor)
	}
	if f.CreatedUnit != "" {
		// A unit filter matches the unit itself or, when the value names
		// a region, every unit in that region.
		and("(e.created_unit = ? OR e.created_unit IN (SELECT name FROM units WHERE region = ?))",
			f.CreatedUnit, f.CreatedUnit)
	}
	if f.SteepPrimary != "" {
		and("e.steep_primary = ?", f.SteepPrimary)
	}
	if len(f.SteepSecondary) > 0 {
		and(tagExists(kind, storage.TagSteepSecondary, len(f.SteepSecondary)),
			stringArgs(f.SteepSecondary)...)
	}
	if f.SignaturePrimary != "" {
		and("e.signature_primary = ?", f.SignaturePrimary)
	}
	if len(f.SignatureSecondary) > 0 {
		and(tagExists(kind, storage.TagSignatureSecondary, len(f.SignatureSecondary)),
			stringArgs(f.SignatureSecondary)...)
	}
	if len(f.SDGs) > 0 {
		and(tagExists(kind, storage.TagSDG, len(f.SDGs)), stringArgs(f.SDGs)...)
	}
	if f.Location != "" {
		and("(e.location = ? OR e.location IN (SELECT name FROM locations WHERE region = ?))",
			f.Location, f.Location)
	}
	if f.SecondaryLocation != "" {
		and("e.location IN (SELECT name FROM locations WHERE region = ?)", f.SecondaryLocation)
	}
	if f.Bureau != "" {
		and("e.location IN (SELECT name FROM locations WHERE bureau = ?)", f.Bureau)
	}
	if f.ScoreMin != 0 {
		and("e.score >= ?", f.ScoreMin)
	}
	if f.ScoreMax != 0 {
		and("e.score <= ?", f.ScoreMax)
	}
	if f.TimeHorizon != "" {
		and("e.time_horizon = ?", string(f.TimeHorizon))
	}
	if f.ImpactRating != "" {
		and("e.impact_rating = ?", string(f.ImpactRating))
	}

	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(parts, " AND "), args
}

// tagExists builds an EXISTS subquery matching any of n values of the
// given tag kind for the entity row.
func tagExists(kind models.EntityKind, tagKind string, n int) string {
	table, idCol := "signal_tags", "signal_id"
	if kind == models.KindTrend {
		table, idCol = "trend_tags", "trend_id"
	}
	return "EXISTS (SELECT 1 FROM " + table + " t WHERE t." + idCol +
		" = e.id AND t.kind = '" + tagKind + "' AND t.value IN (" + placeholders(n) + "))"
}

// ftsQuery rewrites free text into an FTS5 MATCH expression. Tokens are
// runs of letters and digits in any script, mirroring the unicode61
// tokenizer of the index, and every token is double-quoted so user input
// is matched literally and never parsed as query syntax. Returns "" when
// no searchable token remains.
func ftsQuery(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	quoted := make([]string, 0, len(fields))
	for _, tok := range fields {
		quoted = append(quoted, `"`+tok+`"`)
	}
	return strings.Join(quoted, " ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func statusArgs(statuses []models.Status) []any {
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
