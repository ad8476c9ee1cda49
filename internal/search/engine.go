package search

import (
	"context"
	"log/slog"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/storage"
)

// DefaultMaxPerPage caps the page size when the engine is built without
// an explicit limit.
const DefaultMaxPerPage = 10000

// Engine executes faceted, ranked, paginated searches. Visibility and
// the per-item edit flag are folded into the ranking statement itself,
// so every result page reflects one consistent snapshot: an item and its
// edit flag can never disagree about the same access state.
type Engine struct {
	store      storage.Store
	resolver   *access.Resolver
	logger     *slog.Logger
	maxPerPage int
}

// NewEngine builds an Engine over the given store and resolver. The
// logger may be nil; maxPerPage <= 0 selects DefaultMaxPerPage.
func NewEngine(store storage.Store, resolver *access.Resolver, logger *slog.Logger, maxPerPage int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPerPage <= 0 {
		maxPerPage = DefaultMaxPerPage
	}
	return &Engine{store: store, resolver: resolver, logger: logger, maxPerPage: maxPerPage}
}

// SignalPage is one page of a signal search.
type SignalPage struct {
	Items   []*models.Signal `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// TrendPage is one page of a trend search.
type TrendPage struct {
	Items   []*models.Trend `json:"items"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// SearchSignals runs a signal search as the given user.
func (e *Engine) SearchSignals(ctx context.Context, user models.Identity, req Request) (*SignalPage, error) {
	ids, canEdit, total, err := e.rankedIDs(ctx, user, models.KindSignal, req)
	if err != nil {
		return nil, err
	}
	page := &SignalPage{Total: total, Page: req.Page, PerPage: req.PerPage, Items: make([]*models.Signal, 0, len(ids))}
	for i, id := range ids {
		signal, err := e.store.GetSignal(ctx, id)
		if err != nil {
			return nil, err
		}
		signal.CanEdit = canEdit[i]
		page.Items = append(page.Items, signal)
	}
	return page, nil
}

// SearchTrends runs a trend search as the given user.
func (e *Engine) SearchTrends(ctx context.Context, user models.Identity, req Request) (*TrendPage, error) {
	ids, canEdit, total, err := e.rankedIDs(ctx, user, models.KindTrend, req)
	if err != nil {
		return nil, err
	}
	page := &TrendPage{Total: total, Page: req.Page, PerPage: req.PerPage, Items: make([]*models.Trend, 0, len(ids))}
	for i, id := range ids {
		trend, err := e.store.GetTrend(ctx, id)
		if err != nil {
			return nil, err
		}
		trend.CanEdit = canEdit[i]
		page.Items = append(page.Items, trend)
	}
	return page, nil
}

// rankedIDs runs the single ranked statement and returns the page's
// entity ids in rank order, the per-id edit flags, and the total match
// count across all pages.
func (e *Engine) rankedIDs(ctx context.Context, user models.Identity, kind models.EntityKind, req Request) ([]int64, []bool, int, error) {
	if req.Page < 1 {
		return nil, nil, 0, apperr.Validationf("page must be >= 1, got %d", req.Page)
	}
	if req.PerPage < 1 || req.PerPage > e.maxPerPage {
		return nil, nil, 0, apperr.Validationf("per_page must be between 1 and %d, got %d", e.maxPerPage, req.PerPage)
	}
	if err := req.Filters.Validate(kind); err != nil {
		return nil, nil, 0, err
	}

	table, ftsTable := "signals", "signals_fts"
	if kind == models.KindTrend {
		table, ftsTable = "trends", "trends_fts"
	}
	editClause, editArgs := e.resolver.EditClause(user, kind)
	visClause, visArgs := e.resolver.VisibilityClause(user, kind)
	predClause, predArgs := buildPredicate(kind, req.Filters)
	match := ftsQuery(req.Query)

	query := "SELECT e.id, " + editClause + " AS can_edit, COUNT(*) OVER () AS total FROM " + table + " e"
	args := append([]any{}, editArgs...)
	if match != "" {
		query += " JOIN " + ftsTable + " ON " + ftsTable + ".rowid = e.id"
	}

	where, whereArgs := "", []any{}
	if match != "" {
		where = ftsTable + " MATCH ? AND "
		whereArgs = append(whereArgs, match)
	}
	where += "(" + predClause + ") AND (" + visClause + ")"
	whereArgs = append(whereArgs, predArgs...)
	whereArgs = append(whereArgs, visArgs...)

	query += " WHERE " + where
	args = append(args, whereArgs...)

	// Text searches rank by relevance; browse queries by recency. Score
	// then id break ties so repeated identical requests page identically.
	if match != "" {
		query += " ORDER BY " + ftsTable + ".rank, e.score DESC NULLS LAST, e.id"
	} else {
		query += " ORDER BY e.modified_at DESC, e.score DESC NULLS LAST, e.id"
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := e.store.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, 0, apperr.FromStore(err)
	}
	defer rows.Close()

	var (
		ids     []int64
		canEdit []bool
		total   int
	)
	for rows.Next() {
		var id int64
		var edit bool
		if err := rows.Scan(&id, &edit, &total); err != nil {
			return nil, nil, 0, apperr.FromStore(err)
		}
		ids = append(ids, id)
		canEdit = append(canEdit, edit)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, apperr.FromStore(err)
	}

	// A page past the end returns no rows and therefore no window total;
	// count separately so the caller still learns how many items match.
	if len(ids) == 0 && req.Page > 1 {
		countQuery := "SELECT COUNT(*) FROM " + table + " e"
		if match != "" {
			countQuery += " JOIN " + ftsTable + " ON " + ftsTable + ".rowid = e.id"
		}
		countQuery += " WHERE " + where
		if err := e.store.Reader().QueryRowContext(ctx, countQuery, whereArgs...).Scan(&total); err != nil {
			return nil, nil, 0, apperr.FromStore(err)
		}
	}
	return ids, canEdit, total, nil
}
