package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
)

const exampleOverview = `{"title":{"title":"Example","image":{"url":"http://x/y.jpg"}}}`

func newTestWatchlist(t *testing.T) (*WatchlistService, *fakeStore, *fakeAPI) {
	t.Helper()

	api := newFakeAPI()
	store := newFakeStore()
	gateway, _ := newTestGateway(api, newTestClock())

	return NewWatchlistService(store, gateway, zap.NewNop()), store, api
}

func TestWatchlistService_Add_EnrichesNewMovie(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)

	result, err := svc.Add(context.Background(), "user-1", "tt0000001")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "Example", result.Movie.Title)
	assert.Equal(t, "http://x/y.jpg", result.Movie.ImageURL)
	require.NotNil(t, result.Item.Movie)
	assert.Equal(t, "tt0000001", result.Item.Movie.ExternalID)

	movie := store.movie("tt0000001")
	require.NotNil(t, movie)
	assert.Equal(t, "Example", movie.Title)
	assert.Equal(t, "http://x/y.jpg", movie.ImageURL)
	assert.Equal(t, 1, store.itemCount())
	assert.Equal(t, 1, api.callCount(domain.EndpointOverview, "tt0000001"))
}

func TestWatchlistService_Add_Idempotent(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
	ctx := context.Background()

	first, err := svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)
	second, err := svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Item.ID, second.Item.ID)
	assert.Equal(t, 1, store.itemCount())
}

func TestWatchlistService_Add_SkipsEnrichedMovie(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	ctx := context.Background()

	_, _, err := store.FindOrCreateMovie(ctx, "tt0000001")
	require.NoError(t, err)
	require.NoError(t, store.SaveMovieFields(ctx, "tt0000001", "Known", "http://img/known.jpg"))

	result, err := svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)

	assert.Equal(t, "Known", result.Movie.Title)
	assert.Equal(t, 0, api.totalCalls(), "enriched movie must not hit the upstream")
}

func TestWatchlistService_Add_EnrichesPartialMovie(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
	ctx := context.Background()

	_, _, err := store.FindOrCreateMovie(ctx, "tt0000001")
	require.NoError(t, err)
	require.NoError(t, store.SaveMovieFields(ctx, "tt0000001", "Known", ""))

	_, err = svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)

	assert.Equal(t, 1, api.callCount(domain.EndpointOverview, "tt0000001"))
	assert.Equal(t, "Example", store.movie("tt0000001").Title)
}

func TestWatchlistService_Add_EnrichmentIsBestEffort(t *testing.T) {
	tests := []struct {
		name  string
		setup func(api *fakeAPI, store *fakeStore)
	}{
		{
			name: "overview unavailable",
			setup: func(api *fakeAPI, _ *fakeStore) {
				api.fail(domain.EndpointOverview, "tt0000001", &domain.UpstreamError{StatusCode: 500, Body: "boom"})
			},
		},
		{
			name: "missing api key",
			setup: func(api *fakeAPI, _ *fakeStore) {
				api.fail(domain.EndpointOverview, "tt0000001", &domain.AuthConfigError{Setting: "RAPIDAPI_KEY"})
			},
		},
		{
			name: "unexpected overview shape",
			setup: func(api *fakeAPI, _ *fakeStore) {
				api.respond(domain.EndpointOverview, "tt0000001", `{"title":"not an object"}`)
			},
		},
		{
			name: "empty overview",
			setup: func(api *fakeAPI, _ *fakeStore) {
				api.respond(domain.EndpointOverview, "tt0000001", `{}`)
			},
		},
		{
			name: "save fails",
			setup: func(api *fakeAPI, store *fakeStore) {
				api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
				store.failOn["SaveMovieFields"] = errors.New("disk full")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, api := newTestWatchlist(t)
			tt.setup(api, store)

			result, err := svc.Add(context.Background(), "user-1", "tt0000001")
			require.NoError(t, err)

			assert.True(t, result.Created)
			assert.Empty(t, result.Movie.Title)
			assert.Equal(t, 1, store.itemCount())

			movie := store.movie("tt0000001")
			require.NotNil(t, movie, "movie record is kept without enrichment")
			assert.False(t, movie.IsEnriched())
		})
	}
}

func TestWatchlistService_Add_RetriesEnrichmentLater(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.fail(domain.EndpointOverview, "tt0000001", &domain.TimeoutError{Endpoint: domain.EndpointOverview})
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)
	assert.Empty(t, store.movie("tt0000001").Title)

	api.recover(domain.EndpointOverview, "tt0000001")
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)

	_, err = svc.Add(ctx, "user-2", "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, "Example", store.movie("tt0000001").Title)
}

func TestWatchlistService_Add_AssociationFailureRollsBack(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
	store.failOn["FindOrCreateWatchlistItem"] = errors.New("connection reset")

	result, err := svc.Add(context.Background(), "user-1", "tt0000001")
	require.Error(t, err)
	assert.Nil(t, result)

	assert.Nil(t, store.movie("tt0000001"), "movie creation must be rolled back")
	assert.Equal(t, 0, store.itemCount())
}

func TestWatchlistService_Add_MovieLookupFails(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	store.failOn["FindOrCreateMovie"] = errors.New("connection reset")

	_, err := svc.Add(context.Background(), "user-1", "tt0000001")
	require.Error(t, err)
	assert.Equal(t, 0, api.totalCalls())
}

func TestWatchlistService_Add_ConcurrentInsertIsNotAnError(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
	store.failOnce["FindOrCreateWatchlistItem"] = domain.ErrConstraintViolation

	result, err := svc.Add(context.Background(), "user-1", "tt0000001")
	require.NoError(t, err)
	require.NotNil(t, result.Item)
	assert.Equal(t, 1, store.itemCount())
}

func TestWatchlistService_Remove(t *testing.T) {
	svc, store, api := newTestWatchlist(t)
	api.respond(domain.EndpointOverview, "tt0000001", exampleOverview)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", "tt0000001")
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, "user-2", "tt0000001")
	require.NoError(t, err)
	assert.False(t, removed, "other users' items are untouched")

	removed, err = svc.Remove(ctx, "user-1", "tt0000001")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, "user-1", "tt0000001")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = svc.Remove(ctx, "user-1", "tt9999999")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, 0, store.itemCount())
	assert.NotNil(t, store.movie("tt0000001"), "removal keeps the movie record")
}

func TestWatchlistService_Remove_StoreError(t *testing.T) {
	svc, store, _ := newTestWatchlist(t)
	store.failOn["DeleteWatchlistItem"] = errors.New("connection reset")

	removed, err := svc.Remove(context.Background(), "user-1", "tt0000001")
	require.Error(t, err)
	assert.False(t, removed)
}

func TestWatchlistService_List_NewestFirst(t *testing.T) {
	svc, _, api := newTestWatchlist(t)
	ctx := context.Background()

	ids := []string{"tt0000001", "tt0000002", "tt0000003"}
	for _, id := range ids {
		api.respond(domain.EndpointOverview, id, detailsBody(id, "Movie "+id))
		_, err := svc.Add(ctx, "user-1", id)
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, "user-2", "tt0000001")
	require.NoError(t, err)

	items, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	got := make([]string, 0, len(items))
	for _, item := range items {
		require.NotNil(t, item.Movie)
		got = append(got, item.Movie.ExternalID)
	}
	assert.Equal(t, []string{"tt0000003", "tt0000002", "tt0000001"}, got)
	assert.Equal(t, "Movie tt0000003", items[0].Movie.Title)

	empty, err := svc.List(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
