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

func setupSignalService(t *testing.T) (*sqlite.Store, *SignalService) {
	t.Helper()
	store := setupStore(t)
	resolver := access.NewResolver(store.Reader())
	guard := access.NewGuard(resolver, store.Reader(), slog.Default())
	engine := search.NewEngine(store, resolver, slog.Default(), 0)
	return store, NewSignalService(store, guard, engine)
}

func TestSignalServiceLifecycle(t *testing.T) {
	store, svc := setupSignalService(t)
	ctx := context.Background()

	alice := newIdentity(t, store, "alice@example.org", models.RoleUser)
	bob := newIdentity(t, store, "bob@example.org", models.RoleUser)
	visitor := models.Identity{Role: models.RoleVisitor}

	created, err := svc.Create(ctx, alice, &models.Signal{Entity: models.Entity{
		Headline:    "Gig work formalizes",
		Description: "Platform workers gain contracts.",
		Status:      models.StatusApproved,
	}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.CreatedBy != alice.Email {
		t.Errorf("Expected creator set from identity, got %q", created.CreatedBy)
	}
	if !created.CanEdit {
		t.Error("Expected CanEdit true for creator after create")
	}

	t.Run("visitor cannot create", func(t *testing.T) {
		_, err := svc.Create(ctx, visitor, &models.Signal{Entity: models.Entity{Headline: "x"}})
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("missing headline is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, alice, &models.Signal{})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("get populates the edit flag per caller", func(t *testing.T) {
		mine, err := svc.Get(ctx, alice, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !mine.CanEdit {
			t.Error("Expected CanEdit true for creator")
		}

		theirs, err := svc.Get(ctx, bob, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if theirs.CanEdit {
			t.Error("Expected CanEdit false for stranger")
		}
	})

	t.Run("visitor reads are anonymised", func(t *testing.T) {
		fetched, err := svc.Get(ctx, visitor, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.CreatedBy == alice.Email {
			t.Errorf("Expected creator email to be masked, got %q", fetched.CreatedBy)
		}
	})

	t.Run("non-editor cannot update", func(t *testing.T) {
		created.Headline = "Hijacked"
		if _, err := svc.Update(ctx, bob, created); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("creator updates and modified_by follows", func(t *testing.T) {
		created.Headline = "Gig work formalizes worldwide"
		updated, err := svc.Update(ctx, alice, created)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.ModifiedBy != alice.Email {
			t.Errorf("Expected ModifiedBy %q, got %q", alice.Email, updated.ModifiedBy)
		}
	})

	t.Run("private signal is hidden from strangers", func(t *testing.T) {
		secret, err := svc.Create(ctx, alice, &models.Signal{Entity: models.Entity{
			Headline: "Internal only",
			Status:   models.StatusApproved,
			Private:  true,
		}})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := svc.Get(ctx, bob, secret.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("only creator or admin deletes", func(t *testing.T) {
		if err := svc.Delete(ctx, bob, created.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
		if err := svc.Delete(ctx, alice, created.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, alice, created.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSignalServiceFavourites(t *testing.T) {
	store, svc := setupSignalService(t)
	ctx := context.Background()

	alice := newIdentity(t, store, "alice@example.org", models.RoleUser)
	bob := newIdentity(t, store, "bob@example.org", models.RoleUser)
	visitor := models.Identity{Role: models.RoleVisitor}

	public, err := svc.Create(ctx, alice, &models.Signal{Entity: models.Entity{
		Headline: "Urban heat islands",
		Status:   models.StatusApproved,
	}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	secret, err := svc.Create(ctx, alice, &models.Signal{Entity: models.Entity{
		Headline: "Internal memo",
		Status:   models.StatusApproved,
		Private:  true,
	}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("visitor cannot keep favourites", func(t *testing.T) {
		if _, err := svc.ToggleFavourite(ctx, visitor, public.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
		if _, err := svc.Favourites(ctx, visitor); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("invisible signal cannot be favourited", func(t *testing.T) {
		if _, err := svc.ToggleFavourite(ctx, bob, secret.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown signal is NotFound", func(t *testing.T) {
		if _, err := svc.ToggleFavourite(ctx, bob, 99999); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("toggle creates then removes", func(t *testing.T) {
		added, err := svc.ToggleFavourite(ctx, bob, public.ID)
		if err != nil {
			t.Fatalf("ToggleFavourite failed: %v", err)
		}
		if !added {
			t.Error("Expected first toggle to create the favourite")
		}

		favourites, err := svc.Favourites(ctx, bob)
		if err != nil {
			t.Fatalf("Favourites failed: %v", err)
		}
		if len(favourites) != 1 || favourites[0].ID != public.ID {
			t.Fatalf("Expected favourites [%d], got %v", public.ID, favourites)
		}
		if favourites[0].CanEdit {
			t.Error("Expected CanEdit false for bookmarked signal bob does not own")
		}

		added, err = svc.ToggleFavourite(ctx, bob, public.ID)
		if err != nil {
			t.Fatalf("ToggleFavourite failed: %v", err)
		}
		if added {
			t.Error("Expected second toggle to remove the favourite")
		}
		favourites, err = svc.Favourites(ctx, bob)
		if err != nil {
			t.Fatalf("Favourites failed: %v", err)
		}
		if len(favourites) != 0 {
			t.Errorf("Expected empty favourites after removal, got %v", favourites)
		}
	})

	t.Run("creator bookmarks their private signal", func(t *testing.T) {
		if _, err := svc.ToggleFavourite(ctx, alice, secret.ID); err != nil {
			t.Fatalf("ToggleFavourite failed: %v", err)
		}
		favourites, err := svc.Favourites(ctx, alice)
		if err != nil {
			t.Fatalf("Favourites failed: %v", err)
		}
		if len(favourites) != 1 || favourites[0].ID != secret.ID {
			t.Fatalf("Expected favourites [%d], got %v", secret.ID, favourites)
		}
	})

	t.Run("bookmarks hidden later are skipped", func(t *testing.T) {
		if _, err := svc.ToggleFavourite(ctx, bob, public.ID); err != nil {
			t.Fatalf("ToggleFavourite failed: %v", err)
		}
		public.Private = true
		public.ModifiedBy = alice.Email
		if err := store.UpdateSignal(ctx, public); err != nil {
			t.Fatalf("UpdateSignal failed: %v", err)
		}

		favourites, err := svc.Favourites(ctx, bob)
		if err != nil {
			t.Fatalf("Favourites failed: %v", err)
		}
		if len(favourites) != 0 {
			t.Errorf("Expected hidden bookmark to be skipped, got %v", favourites)
		}
	})
}
