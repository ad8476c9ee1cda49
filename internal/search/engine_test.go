package search_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
	"github.com/foresightlab/signalhub/internal/storage/sqlite"
)

func newTestEngine(t *testing.T) (*sqlite.Store, *search.Engine) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	resolver := access.NewResolver(store.Reader())
	return store, search.NewEngine(store, resolver, nil, 0)
}

func createUser(t *testing.T, store *sqlite.Store, email string, role models.Role) models.Identity {
	t.Helper()
	user := &models.User{Email: email, Role: role, Name: email}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return models.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func approvedSignal(headline, description string) *models.Signal {
	return &models.Signal{Entity: models.Entity{
		CreatedBy:   "author@example.org",
		Headline:    headline,
		Description: description,
		Status:      models.StatusApproved,
	}}
}

func TestSearchSignalsFullText(t *testing.T) {
	store, engine := newTestEngine(t)
	ctx := context.Background()
	admin := createUser(t, store, "admin@example.org", models.RoleAdmin)

	healthcare := approvedSignal("AI Revolution in Healthcare", "Machine learning transforms diagnosis.")
	energy := approvedSignal("Renewable Energy Breakthrough", "Perovskite cells reach record efficiency.")
	require.NoError(t, store.CreateSignal(ctx, healthcare))
	require.NoError(t, store.CreateSignal(ctx, energy))

	t.Run("text query matches headline tokens", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{Query: "AI", Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, healthcare.ID, page.Items[0].ID)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("text query matches description tokens", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{Query: "perovskite", Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, energy.ID, page.Items[0].ID)
	})

	t.Run("stale index entries never match", func(t *testing.T) {
		healthcare.Headline = "Clinical decision support matures"
		healthcare.ModifiedBy = admin.Email
		require.NoError(t, store.UpdateSignal(ctx, healthcare))

		page, err := engine.SearchSignals(ctx, admin, search.Request{Query: "revolution", Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)

		page, err = engine.SearchSignals(ctx, admin, search.Request{Query: "clinical", Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, healthcare.ID, page.Items[0].ID)
	})

	t.Run("accented tokens survive the query rewrite", func(t *testing.T) {
		cafe := approvedSignal("Café culture énergie transition", "Paris pilots la sobriété énergétique.")
		require.NoError(t, store.CreateSignal(ctx, cafe))

		page, err := engine.SearchSignals(ctx, admin, search.Request{Query: "énergie", Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, cafe.ID, page.Items[0].ID)

		page, err = engine.SearchSignals(ctx, admin, search.Request{Query: "café", Page: 1, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, cafe.ID, page.Items[0].ID)
	})

	t.Run("punctuation in query is matched literally", func(t *testing.T) {
		_, err := engine.SearchSignals(ctx, admin, search.Request{Query: `energy" OR 1=1 --`, Page: 1, PerPage: 10})
		require.NoError(t, err)
	})
}

func TestSearchSignalsFacets(t *testing.T) {
	store, engine := newTestEngine(t)
	ctx := context.Background()
	admin := createUser(t, store, "admin@example.org", models.RoleAdmin)

	climate := approvedSignal("Coastal cities adapt", "Sea walls and managed retreat.")
	climate.SDGs = []string{"GOAL 13: Climate Action"}
	climate.SteepPrimary = "Environmental"
	health := approvedSignal("Telemedicine expands", "Remote care becomes routine.")
	health.SDGs = []string{"GOAL 3: Good Health and Well-being"}
	health.SteepPrimary = "Technological"
	require.NoError(t, store.CreateSignal(ctx, climate))
	require.NoError(t, store.CreateSignal(ctx, health))

	t.Run("single facet narrows results", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{SDGs: []string{"GOAL 13: Climate Action"}},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, climate.ID, page.Items[0].ID)
	})

	t.Run("values within a facet are OR-ed", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{SDGs: []string{"GOAL 13: Climate Action", "GOAL 3: Good Health and Well-being"}},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("facets are AND-ed across keys", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{
				SDGs:         []string{"GOAL 13: Climate Action"},
				SteepPrimary: "Technological",
			},
			Page: 1, PerPage: 10,
		})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("location expands through regions and bureaux", func(t *testing.T) {
		require.NoError(t, store.UpsertLocation(ctx, "Kenya", "Africa", "RBA"))
		require.NoError(t, store.UpsertLocation(ctx, "Fiji", "Asia-Pacific", "RBAP"))

		kenyan := approvedSignal("Mobile money matures", "Agent networks reach rural areas.")
		kenyan.Location = "Kenya"
		require.NoError(t, store.CreateSignal(ctx, kenyan))

		page, err := engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{Location: "Africa"},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, kenyan.ID, page.Items[0].ID)

		page, err = engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{Bureau: "RBA"},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)

		page, err = engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{Bureau: "RBAP"},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("status filter", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, admin, search.Request{
			Filters: search.Filters{Statuses: []models.Status{models.StatusApproved}},
			Page:    1, PerPage: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})
}

func TestSearchSignalsPagination(t *testing.T) {
	store, engine := newTestEngine(t)
	ctx := context.Background()
	admin := createUser(t, store, "admin@example.org", models.RoleAdmin)

	for i := 0; i < 25; i++ {
		require.NoError(t, store.CreateSignal(ctx, approvedSignal(
			fmt.Sprintf("Signal number %d", i), "Pagination fixture.")))
	}

	seen := map[int64]bool{}
	sizes := []int{10, 10, 5}
	for page := 1; page <= 3; page++ {
		result, err := engine.SearchSignals(ctx, admin, search.Request{Page: page, PerPage: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, result.Total, "page %d", page)
		assert.Len(t, result.Items, sizes[page-1], "page %d", page)
		for _, item := range result.Items {
			assert.Falsef(t, seen[item.ID], "signal %d returned on two pages", item.ID)
			seen[item.ID] = true
		}
	}
	assert.Len(t, seen, 25)

	t.Run("page past the end still reports the total", func(t *testing.T) {
		result, err := engine.SearchSignals(ctx, admin, search.Request{Page: 4, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.Equal(t, 25, result.Total)
	})

	t.Run("repeated request pages identically", func(t *testing.T) {
		first, err := engine.SearchSignals(ctx, admin, search.Request{Page: 2, PerPage: 10})
		require.NoError(t, err)
		second, err := engine.SearchSignals(ctx, admin, search.Request{Page: 2, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, second.Items, len(first.Items))
		for i := range first.Items {
			assert.Equal(t, first.Items[i].ID, second.Items[i].ID)
		}
	})
}

func TestSearchSignalsVisibilityAndEditFlag(t *testing.T) {
	store, engine := newTestEngine(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.org", models.RoleUser)
	bob := createUser(t, store, "bob@example.org", models.RoleUser)

	mine := approvedSignal("My own signal", "Visible and editable to me.")
	mine.CreatedBy = alice.Email
	private := approvedSignal("Somebody's secret", "Private content.")
	private.Private = true
	require.NoError(t, store.CreateSignal(ctx, mine))
	require.NoError(t, store.CreateSignal(ctx, private))

	t.Run("private signals are excluded for strangers", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, bob, search.Request{Page: 1, PerPage: 10})
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.NotEqual(t, private.ID, item.ID)
		}
		assert.Equal(t, 1, page.Total)
	})

	t.Run("edit flag reflects the requesting user", func(t *testing.T) {
		page, err := engine.SearchSignals(ctx, alice, search.Request{Page: 1, PerPage: 10})
		require.NoError(t, err)
		byID := map[int64]*models.Signal{}
		for _, item := range page.Items {
			byID[item.ID] = item
		}
		require.Contains(t, byID, mine.ID)
		assert.True(t, byID[mine.ID].CanEdit)

		page, err = engine.SearchSignals(ctx, bob, search.Request{Page: 1, PerPage: 10})
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.False(t, item.CanEdit)
		}
	})
}

func TestSearchTrends(t *testing.T) {
	store, engine := newTestEngine(t)
	ctx := context.Background()
	admin := createUser(t, store, "admin@example.org", models.RoleAdmin)

	near := &models.Trend{
		Entity: models.Entity{
			CreatedBy: "curator@example.org",
			Headline:  "Grid decentralization",
			Status:    models.StatusApproved,
		},
		TimeHorizon:  models.HorizonShort,
		ImpactRating: models.RatingHigh,
	}
	far := &models.Trend{
		Entity: models.Entity{
			CreatedBy: "curator@example.org",
			Headline:  "Fusion energy at scale",
			Status:    models.StatusApproved,
		},
		TimeHorizon: models.HorizonLong,
	}
	require.NoError(t, store.CreateTrend(ctx, near))
	require.NoError(t, store.CreateTrend(ctx, far))

	page, err := engine.SearchTrends(ctx, admin, search.Request{
		Filters: search.Filters{TimeHorizon: models.HorizonShort},
		Page:    1, PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, near.ID, page.Items[0].ID)
}

func TestSearchValidation(t *testing.T) {
	_, engine := newTestEngine(t)
	ctx := context.Background()
	user := models.Identity{UserID: 1, Email: "u@example.org", Role: models.RoleUser}

	cases := []struct {
		name string
		req  search.Request
	}{
		{"zero page", search.Request{Page: 0, PerPage: 10}},
		{"zero per_page", search.Request{Page: 1, PerPage: 0}},
		{"per_page over cap", search.Request{Page: 1, PerPage: search.DefaultMaxPerPage + 1}},
		{"unknown status value", search.Request{Page: 1, PerPage: 10,
			Filters: search.Filters{Statuses: []models.Status{"Bogus"}}}},
		{"trend facet on signals", search.Request{Page: 1, PerPage: 10,
			Filters: search.Filters{TimeHorizon: models.HorizonShort}}},
		{"score out of range", search.Request{Page: 1, PerPage: 10,
			Filters: search.Filters{ScoreMin: 9}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.SearchSignals(ctx, user, tc.req)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestParseRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req, err := search.ParseRequest(models.KindSignal, url.Values{})
		require.NoError(t, err)
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 10, req.PerPage)
	})

	t.Run("full request", func(t *testing.T) {
		values := url.Values{
			"query":    {"solar"},
			"status":   {"Approved", "New"},
			"sdgs":     {"GOAL 13: Climate Action"},
			"page":     {"2"},
			"per_page": {"25"},
		}
		req, err := search.ParseRequest(models.KindSignal, values)
		require.NoError(t, err)
		assert.Equal(t, "solar", req.Query)
		assert.Equal(t, []models.Status{models.StatusApproved, models.StatusNew}, req.Filters.Statuses)
		assert.Equal(t, 2, req.Page)
		assert.Equal(t, 25, req.PerPage)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		_, err := search.ParseRequest(models.KindSignal, url.Values{"color": {"blue"}})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("trend-only key rejected for signals", func(t *testing.T) {
		_, err := search.ParseRequest(models.KindSignal, url.Values{"time_horizon": {string(models.HorizonShort)}})
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		_, err = search.ParseRequest(models.KindTrend, url.Values{"time_horizon": {string(models.HorizonShort)}})
		assert.NoError(t, err)
	})

	t.Run("malformed numbers are rejected", func(t *testing.T) {
		_, err := search.ParseRequest(models.KindSignal, url.Values{"page": {"two"}})
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		_, err = search.ParseRequest(models.KindSignal, url.Values{"score_min": {"high"}})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("malformed facet value is rejected", func(t *testing.T) {
		_, err := search.ParseRequest(models.KindSignal, url.Values{"sdgs": {"GOAL 99: Flying Cars"}})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}
