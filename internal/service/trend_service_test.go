package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
	"github.com/foresightlab/signalhub/internal/storage/sqlite"
)

func setupTrendService(t *testing.T) (*sqlite.Store, *TrendService) {
	t.Helper()
	store := setupStore(t)
	resolver := access.NewResolver(store.Reader())
	guard := access.NewGuard(resolver, store.Reader(), slog.Default())
	engine := search.NewEngine(store, resolver, slog.Default(), 0)
	return store, NewTrendService(store, guard, engine)
}

func TestTrendServicePermissions(t *testing.T) {
	store, svc := setupTrendService(t)
	ctx := context.Background()

	curator := newIdentity(t, store, "curator@example.org", models.RoleCurator)
	user := newIdentity(t, store, "user@example.org", models.RoleUser)

	t.Run("plain users cannot create trends", func(t *testing.T) {
		_, err := svc.Create(ctx, user, &models.Trend{Entity: models.Entity{Headline: "x"}})
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	trend, err := svc.Create(ctx, curator, &models.Trend{
		Entity:       models.Entity{Headline: "Remote-first institutions", Status: models.StatusApproved},
		TimeHorizon:  models.HorizonMedium,
		ImpactRating: models.RatingModerate,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("bad horizon is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, curator, &models.Trend{
			Entity:      models.Entity{Headline: "y"},
			TimeHorizon: "Horizon 9",
		})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("approved trend is readable by anyone", func(t *testing.T) {
		fetched, err := svc.Get(ctx, user, trend.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.CanEdit {
			t.Error("Expected CanEdit false for non-creator")
		}
	})

	t.Run("only creator edits", func(t *testing.T) {
		trend.Headline = "Remote-first institutions mature"
		if _, err := svc.Update(ctx, user, trend); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
		if _, err := svc.Update(ctx, curator, trend); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	})
}
