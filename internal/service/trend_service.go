package service

import (
	"context"
	"log/slog"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
	"github.com/foresightlab/signalhub/internal/storage"
)

// TrendService implements the trend operations. Trends are curated
// aggregations, so creation is restricted to staff; visibility follows
// the same predicate as signals minus the group clauses, since groups
// hold signals only.
type TrendService struct {
	store  storage.Store
	source access.Source
	engine *search.Engine
}

// NewTrendService creates a new TrendService.
func NewTrendService(store storage.Store, source access.Source, engine *search.Engine) *TrendService {
	return &TrendService{store: store, source: source, engine: engine}
}

// Search runs a faceted, ranked trend search scoped to what the user
// may see.
func (s *TrendService) Search(ctx context.Context, user models.Identity, req search.Request) (*search.TrendPage, error) {
	slog.Info("Trend search request received",
		"user", user.Email,
		"query", req.Query,
		"page", req.Page,
		"per_page", req.PerPage,
	)

	page, err := s.engine.SearchTrends(ctx, user, req)
	if err != nil {
		slog.Error("Trend search failed", "user", user.Email, "error", err)
		return nil, err
	}
	if user.Role == models.RoleVisitor {
		for _, trend := range page.Items {
			trend.Anonymise()
		}
	}

	slog.Info("Trend search successful", "user", user.Email, "total", page.Total, "returned", len(page.Items))
	return page, nil
}

// Get retrieves one trend with the edit flag populated. Trends the user
// may not see fail with Forbidden.
func (s *TrendService) Get(ctx context.Context, user models.Identity, id int64) (*models.Trend, error) {
	visible, err := s.source.CanView(ctx, user, models.KindTrend, id)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperr.Forbiddenf("trend %d is not visible to user %d", id, user.UserID)
	}

	trend, err := s.store.GetTrend(ctx, id)
	if err != nil {
		return nil, err
	}
	if trend.CanEdit, err = s.source.CanEdit(ctx, user, models.KindTrend, id); err != nil {
		return nil, err
	}
	if user.Role == models.RoleVisitor {
		trend.Anonymise()
	}
	return trend, nil
}

// Create submits a new trend. Only curators and admins may create.
func (s *TrendService) Create(ctx context.Context, user models.Identity, trend *models.Trend) (*models.Trend, error) {
	slog.Info("CreateTrend request received", "user", user.Email, "headline", trend.Headline)

	if !user.Role.IsStaff() {
		return nil, apperr.Forbiddenf("only curators and admins may create trends")
	}
	if err := validateTrend(trend); err != nil {
		return nil, err
	}

	trend.CreatedBy = user.Email
	trend.ModifiedBy = user.Email
	if trend.CreatedUnit == "" {
		trend.CreatedUnit = user.Unit
	}
	if err := s.store.CreateTrend(ctx, trend); err != nil {
		slog.Error("CreateTrend failed", "user", user.Email, "error", err)
		return nil, err
	}
	trend.CanEdit = true

	slog.Info("Trend created", "trend_id", trend.ID, "user", user.Email)
	return trend, nil
}

// Update overwrites a trend. The caller must be its creator or a global
// admin; trends carry no group-derived edit rights.
func (s *TrendService) Update(ctx context.Context, user models.Identity, trend *models.Trend) (*models.Trend, error) {
	canEdit, err := s.source.CanEdit(ctx, user, models.KindTrend, trend.ID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, apperr.Forbiddenf("user %d may not edit trend %d", user.UserID, trend.ID)
	}
	if err := validateTrend(trend); err != nil {
		return nil, err
	}

	trend.ModifiedBy = user.Email
	if err := s.store.UpdateTrend(ctx, trend); err != nil {
		slog.Error("UpdateTrend failed", "trend_id", trend.ID, "error", err)
		return nil, err
	}
	trend.CanEdit = true

	slog.Info("Trend updated", "trend_id", trend.ID, "user", user.Email)
	return trend, nil
}

// Delete removes a trend. Only its creator or a global admin may delete.
func (s *TrendService) Delete(ctx context.Context, user models.Identity, id int64) error {
	trend, err := s.store.GetTrend(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsAdmin() && trend.CreatedBy != user.Email {
		return apperr.Forbiddenf("user %d may not delete trend %d", user.UserID, id)
	}
	if err := s.store.DeleteTrend(ctx, id); err != nil {
		slog.Error("DeleteTrend failed", "trend_id", id, "error", err)
		return err
	}
	slog.Info("Trend deleted", "trend_id", id, "user", user.Email)
	return nil
}

func validateTrend(trend *models.Trend) error {
	if err := validateEntity(&trend.Entity); err != nil {
		return err
	}
	if trend.TimeHorizon != "" && !models.ValidHorizon(trend.TimeHorizon) {
		return apperr.Validationf("unknown time horizon %q", trend.TimeHorizon)
	}
	if trend.ImpactRating != "" && !models.ValidRating(trend.ImpactRating) {
		return apperr.Validationf("unknown impact rating %q", trend.ImpactRating)
	}
	return nil
}
