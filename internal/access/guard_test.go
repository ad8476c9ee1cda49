package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/models"
)

// undercountingSource wraps a real resolver but drops ids from its
// answers, simulating the historical under-count.
type undercountingSource struct {
	inner access.Source
	drop  map[int64]struct{}
}

func (s *undercountingSource) VisibleIDs(ctx context.Context, user models.Identity, kind models.EntityKind) (map[int64]struct{}, error) {
	ids, err := s.inner.VisibleIDs(ctx, user, kind)
	if err != nil {
		return nil, err
	}
	for id := range s.drop {
		delete(ids, id)
	}
	return ids, nil
}

func (s *undercountingSource) CanView(ctx context.Context, user models.Identity, kind models.EntityKind, id int64) (bool, error) {
	if _, dropped := s.drop[id]; dropped {
		return false, nil
	}
	return s.inner.CanView(ctx, user, kind, id)
}

func (s *undercountingSource) CanEdit(ctx context.Context, user models.Identity, kind models.EntityKind, id int64) (bool, error) {
	return s.inner.CanEdit(ctx, user, kind, id)
}

func TestGuardFailsOpenOnUndercount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.org", models.RoleUser)
	bob := createUser(t, store, "bob@example.org", models.RoleUser)

	shared := createSignal(t, store, alice.Email, models.StatusNew, false, false)
	group := createGroup(t, store, "readers", alice.Email, []int64{alice.UserID})
	require.NoError(t, store.AddMember(ctx, group.ID, bob.UserID, alice.Email))
	require.NoError(t, store.AddSignal(ctx, group.ID, shared.ID, alice.Email))

	resolver := access.NewResolver(store.Reader())
	faulty := &undercountingSource{inner: resolver, drop: map[int64]struct{}{shared.ID: {}}}
	guard := access.NewGuard(faulty, store.Reader(), nil)

	t.Run("VisibleIDs merges the missed id back in", func(t *testing.T) {
		ids, err := guard.VisibleIDs(ctx, bob, models.KindSignal)
		require.NoError(t, err)
		assert.Contains(t, ids, shared.ID)
	})

	t.Run("CanView overrides a false negative", func(t *testing.T) {
		visible, err := guard.CanView(ctx, bob, models.KindSignal, shared.ID)
		require.NoError(t, err)
		assert.True(t, visible)
	})

	t.Run("signals outside group reach stay hidden", func(t *testing.T) {
		hidden := createSignal(t, store, alice.Email, models.StatusNew, false, true)
		ids, err := guard.VisibleIDs(ctx, bob, models.KindSignal)
		require.NoError(t, err)
		assert.NotContains(t, ids, hidden.ID)
	})
}

func TestGuardAgreesWithHealthySource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.org", models.RoleUser)
	bob := createUser(t, store, "bob@example.org", models.RoleUser)

	shared := createSignal(t, store, alice.Email, models.StatusNew, false, false)
	group := createGroup(t, store, "readers", alice.Email, []int64{alice.UserID})
	require.NoError(t, store.AddMember(ctx, group.ID, bob.UserID, alice.Email))
	require.NoError(t, store.AddSignal(ctx, group.ID, shared.ID, alice.Email))

	resolver := access.NewResolver(store.Reader())
	guard := access.NewGuard(resolver, store.Reader(), nil)

	direct, err := resolver.VisibleIDs(ctx, bob, models.KindSignal)
	require.NoError(t, err)
	guarded, err := guard.VisibleIDs(ctx, bob, models.KindSignal)
	require.NoError(t, err)
	assert.Equal(t, direct, guarded)
}
