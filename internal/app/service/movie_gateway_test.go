package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/infra/memcache"
)

func newTestGateway(api domain.MovieAPI, clock *testClock) (*MovieGateway, *memcache.Cache) {
	cache := memcache.New(memcache.WithClock(clock.Now))
	return NewMovieGateway(api, cache, DefaultGatewayConfig(), zap.NewNop()), cache
}

func detailsBody(id, title string) string {
	return fmt.Sprintf(`{"id":"/title/%s/","title":{"title":%q,"image":{"url":"http://img/%s.jpg"}}}`, id, title, id)
}

func TestMovieGateway_Overview_CacheAside(t *testing.T) {
	api := newFakeAPI()
	body := `{"title":{"title":"Example","image":{"url":"http://x/y.jpg"}}}`
	api.respond(domain.EndpointOverview, "tt0000001", body)

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	first, err := gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount(domain.EndpointOverview, "tt0000001"), "cold cache triggers one upstream call")

	second, err := gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount(domain.EndpointOverview, "tt0000001"), "warm cache triggers no upstream call")

	assert.JSONEq(t, body, string(first))
	assert.Equal(t, first, second)
}

func TestMovieGateway_Overview_ExpiresAfterTTL(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointOverview, "tt0000001", `{"title":{"title":"Example"}}`)

	clock := newTestClock()
	gateway, _ := newTestGateway(api, clock)
	ctx := context.Background()

	_, err := gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount(domain.EndpointOverview, "tt0000001"))

	clock.Advance(2 * time.Minute)
	_, err = gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, 2, api.callCount(domain.EndpointOverview, "tt0000001"), "expired entry triggers a new fetch")
}

func TestMovieGateway_Overview_ErrorsPropagateAndAreNotCached(t *testing.T) {
	api := newFakeAPI()
	api.fail(domain.EndpointOverview, "tt0000001", &domain.UpstreamError{StatusCode: 500, Body: "boom"})

	gateway, cache := newTestGateway(api, newTestClock())
	ctx := context.Background()

	_, err := gateway.Overview(ctx, "tt0000001")
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, 500, upstreamErr.StatusCode)
	assert.Equal(t, 0, cache.Len())

	_, err = gateway.Overview(ctx, "tt0000001")
	require.Error(t, err)
	assert.Equal(t, 2, api.callCount(domain.EndpointOverview, "tt0000001"))
}

func TestMovieGateway_Details_InvalidJSON(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointDetails, "tt0000001", `<html>rate limited</html>`)

	gateway, cache := newTestGateway(api, newTestClock())

	_, err := gateway.Details(context.Background(), "tt0000001")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestMovieGateway_Details_UsesOwnKey(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointOverview, "tt0000001", `{"kind":"overview"}`)
	api.respond(domain.EndpointDetails, "tt0000001", `{"kind":"details"}`)

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	overview, err := gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	details, err := gateway.Details(ctx, "tt0000001")
	require.NoError(t, err)

	assert.JSONEq(t, `{"kind":"overview"}`, string(overview))
	assert.JSONEq(t, `{"kind":"details"}`, string(details))
}

func TestMovieGateway_Popular_PartialFailure(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointPopular, "", `[
		"/title/tt0000001/", "/title/tt0000002/", "/title/tt0000003/",
		"/title/tt0000004/", "/title/tt0000005/", "/title/tt0000006/"
	]`)
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("tt000000%d", i)
		api.respond(domain.EndpointDetails, id, detailsBody(id, fmt.Sprintf("Movie %d", i)))
	}
	api.fail(domain.EndpointDetails, "tt0000002", &domain.UpstreamError{StatusCode: 500})
	api.fail(domain.EndpointDetails, "tt0000004", &domain.TimeoutError{Endpoint: domain.EndpointDetails})

	gateway, _ := newTestGateway(api, newTestClock())

	docs, err := gateway.Popular(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, docs, 3)

	var titles []string
	for _, doc := range docs {
		s, err := doc.Summary()
		require.NoError(t, err)
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Movie 1", "Movie 3", "Movie 5"}, titles, "order of the popular list is kept")
	assert.Equal(t, 0, api.callCount(domain.EndpointDetails, "tt0000006"), "titles beyond the limit are not fetched")
}

func TestMovieGateway_Popular_CachesPartialList(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointPopular, "", `["/title/tt0000001/","/title/tt0000002/"]`)
	api.respond(domain.EndpointDetails, "tt0000001", detailsBody("tt0000001", "Movie 1"))
	api.fail(domain.EndpointDetails, "tt0000002", errors.New("connection reset"))

	clock := newTestClock()
	gateway, _ := newTestGateway(api, clock)
	ctx := context.Background()

	docs, err := gateway.Popular(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// The upstream recovers, but the short list stays cached for the list TTL.
	api.respond(domain.EndpointDetails, "tt0000002", detailsBody("tt0000002", "Movie 2"))
	api.recover(domain.EndpointDetails, "tt0000002")

	docs, err = gateway.Popular(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, api.callCount(domain.EndpointPopular, ""))

	clock.Advance(11 * time.Minute)
	docs, err = gateway.Popular(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 2, api.callCount(domain.EndpointPopular, ""))
}

func TestMovieGateway_Popular_AllDetailsFail(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointPopular, "", `["/title/tt0000001/","/title/tt0000002/"]`)
	api.fail(domain.EndpointDetails, "tt0000001", &domain.UpstreamError{StatusCode: 503})
	api.fail(domain.EndpointDetails, "tt0000002", &domain.UpstreamError{StatusCode: 503})

	gateway, _ := newTestGateway(api, newTestClock())

	docs, err := gateway.Popular(context.Background(), 15)

	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestMovieGateway_Popular_ListFailurePropagates(t *testing.T) {
	api := newFakeAPI()
	api.fail(domain.EndpointPopular, "", &domain.UpstreamError{StatusCode: 429})

	gateway, _ := newTestGateway(api, newTestClock())

	_, err := gateway.Popular(context.Background(), 5)

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, 429, upstreamErr.StatusCode)
}

func TestMovieGateway_Popular_ReusesCachedDetails(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointPopular, "", `["/title/tt0000001/"]`)
	api.respond(domain.EndpointDetails, "tt0000001", detailsBody("tt0000001", "Movie 1"))

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	_, err := gateway.Details(ctx, "tt0000001")
	require.NoError(t, err)

	docs, err := gateway.Popular(ctx, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, api.callCount(domain.EndpointDetails, "tt0000001"))
}

func TestMovieGateway_Popular_LimitKeysAreIndependent(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointPopular, "", `["/title/tt0000001/","/title/tt0000002/"]`)
	api.respond(domain.EndpointDetails, "tt0000001", detailsBody("tt0000001", "Movie 1"))
	api.respond(domain.EndpointDetails, "tt0000002", detailsBody("tt0000002", "Movie 2"))

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	one, err := gateway.Popular(ctx, 1)
	require.NoError(t, err)
	two, err := gateway.Popular(ctx, 2)
	require.NoError(t, err)

	assert.Len(t, one, 1)
	assert.Len(t, two, 2)
	assert.Equal(t, 2, api.callCount(domain.EndpointPopular, ""))
}

func TestMovieGateway_Search(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointSearch, "matrix", `{"results":[
		{"id":"/title/tt0133093/","title":"The Matrix"},
		{"id":"/title/tt0234215/","title":"The Matrix Reloaded"},
		{"id":"/title/tt0242653/","title":"The Matrix Revolutions"}
	]}`)

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	results, err := gateway.Search(ctx, "matrix", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var first struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(results[0], &first))
	assert.Equal(t, "The Matrix", first.Title)

	_, err = gateway.Search(ctx, "matrix", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount(domain.EndpointSearch, "matrix"))
}

func TestMovieGateway_Search_NoResults(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointSearch, "zzz", `{"meta":{}}`)

	gateway, _ := newTestGateway(api, newTestClock())
	ctx := context.Background()

	results, err := gateway.Search(ctx, "zzz", 15)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	// An empty list is a cache hit, not a miss.
	_, err = gateway.Search(ctx, "zzz", 15)
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount(domain.EndpointSearch, "zzz"))
}

func TestMovieGateway_Search_ErrorPropagates(t *testing.T) {
	api := newFakeAPI()
	api.fail(domain.EndpointSearch, "matrix", &domain.AuthConfigError{Setting: "rapidapi.key"})

	gateway, _ := newTestGateway(api, newTestClock())

	_, err := gateway.Search(context.Background(), "matrix", 15)

	var authErr *domain.AuthConfigError
	assert.ErrorAs(t, err, &authErr)
}

// failingCache simulates an unreachable cache backend.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func TestMovieGateway_CacheFailureFallsThrough(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointOverview, "tt0000001", `{"title":{"title":"Example"}}`)

	gateway := NewMovieGateway(api, failingCache{}, DefaultGatewayConfig(), zap.NewNop())

	doc, err := gateway.Overview(context.Background(), "tt0000001")

	require.NoError(t, err)
	assert.JSONEq(t, `{"title":{"title":"Example"}}`, string(doc))
}

func TestMovieGateway_NilCache(t *testing.T) {
	api := newFakeAPI()
	api.respond(domain.EndpointOverview, "tt0000001", `{}`)

	gateway := NewMovieGateway(api, nil, DefaultGatewayConfig(), zap.NewNop())
	ctx := context.Background()

	_, err := gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)
	_, err = gateway.Overview(ctx, "tt0000001")
	require.NoError(t, err)

	assert.Equal(t, 2, api.callCount(domain.EndpointOverview, "tt0000001"))
}
