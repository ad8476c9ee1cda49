package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
	"github.com/foresightlab/signalhub/internal/storage"
)

// SignalService implements the signal operations: faceted search,
// reads with access resolution, and creator/collaborator-gated writes.
type SignalService struct {
	store  storage.Store
	source access.Source
	engine *search.Engine
}

// NewSignalService creates a new SignalService.
func NewSignalService(store storage.Store, source access.Source, engine *search.Engine) *SignalService {
	return &SignalService{store: store, source: source, engine: engine}
}

// Search runs a faceted, ranked signal search scoped to what the user
// may see.
func (s *SignalService) Search(ctx context.Context, user models.Identity, req search.Request) (*search.SignalPage, error) {
	slog.Info("Signal search request received",
		"user", user.Email,
		"query", req.Query,
		"page", req.Page,
		"per_page", req.PerPage,
	)

	page, err := s.engine.SearchSignals(ctx, user, req)
	if err != nil {
		slog.Error("Signal search failed", "user", user.Email, "error", err)
		return nil, err
	}
	if user.Role == models.RoleVisitor {
		for _, signal := range page.Items {
			signal.Anonymise()
		}
	}

	slog.Info("Signal search successful", "user", user.Email, "total", page.Total, "returned", len(page.Items))
	return page, nil
}

// Get retrieves one signal with the edit flag populated. Signals the
// user may not see fail with Forbidden.
func (s *SignalService) Get(ctx context.Context, user models.Identity, id int64) (*models.Signal, error) {
	visible, err := s.source.CanView(ctx, user, models.KindSignal, id)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperr.Forbiddenf("signal %d is not visible to user %d", id, user.UserID)
	}

	signal, err := s.store.GetSignal(ctx, id)
	if err != nil {
		return nil, err
	}
	if signal.CanEdit, err = s.source.CanEdit(ctx, user, models.KindSignal, id); err != nil {
		return nil, err
	}
	if user.Role == models.RoleVisitor {
		signal.Anonymise()
	}
	return signal, nil
}

// Create submits a new signal. Visitors may not create; everyone else
// may, and becomes the creator with full edit rights.
func (s *SignalService) Create(ctx context.Context, user models.Identity, signal *models.Signal) (*models.Signal, error) {
	slog.Info("CreateSignal request received", "user", user.Email, "headline", signal.Headline)

	if user.Role == models.RoleVisitor {
		return nil, apperr.Forbiddenf("visitors may not create signals")
	}
	if err := validateEntity(&signal.Entity); err != nil {
		return nil, err
	}

	signal.CreatedBy = user.Email
	signal.ModifiedBy = user.Email
	if signal.CreatedUnit == "" {
		signal.CreatedUnit = user.Unit
	}
	if err := s.store.CreateSignal(ctx, signal); err != nil {
		slog.Error("CreateSignal failed", "user", user.Email, "error", err)
		return nil, err
	}
	signal.CanEdit = true

	slog.Info("Signal created", "signal_id", signal.ID, "user", user.Email)
	return signal, nil
}

// Update overwrites a signal. The caller must hold edit rights: be the
// creator, an admin of a group the signal is shared with, a collaborator
// on it, or a global admin.
func (s *SignalService) Update(ctx context.Context, user models.Identity, signal *models.Signal) (*models.Signal, error) {
	canEdit, err := s.source.CanEdit(ctx, user, models.KindSignal, signal.ID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, apperr.Forbiddenf("user %d may not edit signal %d", user.UserID, signal.ID)
	}
	if err := validateEntity(&signal.Entity); err != nil {
		return nil, err
	}

	signal.ModifiedBy = user.Email
	if err := s.store.UpdateSignal(ctx, signal); err != nil {
		slog.Error("UpdateSignal failed", "signal_id", signal.ID, "error", err)
		return nil, err
	}
	signal.CanEdit = true

	slog.Info("Signal updated", "signal_id", signal.ID, "user", user.Email)
	return signal, nil
}

// Delete removes a signal. Only its creator or a global admin may
// delete; group admins and collaborators edit, they do not delete.
func (s *SignalService) Delete(ctx context.Context, user models.Identity, id int64) error {
	signal, err := s.store.GetSignal(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsAdmin() && signal.CreatedBy != user.Email {
		return apperr.Forbiddenf("user %d may not delete signal %d", user.UserID, id)
	}
	if err := s.store.DeleteSignal(ctx, id); err != nil {
		slog.Error("DeleteSignal failed", "signal_id", id, "error", err)
		return err
	}
	slog.Info("Signal deleted", "signal_id", id, "user", user.Email)
	return nil
}

// ToggleFavourite bookmarks a signal for the caller, or removes the
// bookmark when it is already set. Returns true when the favourite was
// created. Visitors carry no account and may not keep favourites, and
// signals the caller may not see cannot be bookmarked.
func (s *SignalService) ToggleFavourite(ctx context.Context, user models.Identity, signalID int64) (bool, error) {
	if user.Role == models.RoleVisitor {
		return false, apperr.Forbiddenf("visitors may not keep favourites")
	}
	visible, err := s.source.CanView(ctx, user, models.KindSignal, signalID)
	if err != nil {
		return false, err
	}
	if !visible {
		return false, apperr.Forbiddenf("signal %d is not visible to user %d", signalID, user.UserID)
	}

	added, err := s.store.ToggleFavourite(ctx, user.UserID, signalID)
	if err != nil {
		slog.Error("ToggleFavourite failed", "signal_id", signalID, "user", user.Email, "error", err)
		return false, err
	}
	slog.Info("Favourite toggled", "signal_id", signalID, "user", user.Email, "added", added)
	return added, nil
}

// Favourites returns the caller's bookmarked signals, most recently
// favourited first, with edit flags populated. Bookmarks on signals the
// caller can no longer see are skipped rather than revealed.
func (s *SignalService) Favourites(ctx context.Context, user models.Identity) ([]*models.Signal, error) {
	if user.Role == models.RoleVisitor {
		return nil, apperr.Forbiddenf("visitors may not keep favourites")
	}
	ids, err := s.store.FavouriteSignalIDs(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	visible, err := s.source.VisibleIDs(ctx, user, models.KindSignal)
	if err != nil {
		return nil, err
	}

	signals := make([]*models.Signal, 0, len(ids))
	for _, id := range ids {
		if _, ok := visible[id]; !ok {
			continue
		}
		signal, err := s.store.GetSignal(ctx, id)
		if err != nil {
			return nil, err
		}
		if signal.CanEdit, err = s.source.CanEdit(ctx, user, models.KindSignal, id); err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}
	return signals, nil
}

// validateEntity checks the fields shared by signals and trends against
// the fixed taxonomies.
func validateEntity(e *models.Entity) error {
	if strings.TrimSpace(e.Headline) == "" {
		return apperr.Validationf("headline required")
	}
	if e.Status != "" && !models.ValidStatus(e.Status) {
		return apperr.Validationf("unknown status %q", e.Status)
	}
	if e.Score != nil && (*e.Score < models.ScoreMin || *e.Score > models.ScoreMax) {
		return apperr.Validationf("score %d out of range %d-%d", *e.Score, models.ScoreMin, models.ScoreMax)
	}
	if e.SteepPrimary != "" && !slices.Contains(models.Steep, e.SteepPrimary) {
		return apperr.Validationf("unknown steep category %q", e.SteepPrimary)
	}
	for _, v := range e.SteepSecondary {
		if !slices.Contains(models.Steep, v) {
			return apperr.Validationf("unknown steep category %q", v)
		}
	}
	if e.SignaturePrimary != "" && !slices.Contains(models.Signatures, e.SignaturePrimary) {
		return apperr.Validationf("unknown signature solution %q", e.SignaturePrimary)
	}
	for _, v := range e.SignatureSecondary {
		if !slices.Contains(models.Signatures, v) {
			return apperr.Validationf("unknown signature solution %q", v)
		}
	}
	for _, v := range e.SDGs {
		if !slices.Contains(models.Goals, v) {
			return apperr.Validationf("unknown SDG %q", v)
		}
	}
	return nil
}
