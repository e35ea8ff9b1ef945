package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"watchlist-service/internal/domain"
)

// fakeAPI is an in-memory domain.MovieAPI keyed by endpoint and tconst.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
	calls     map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

func apiKey(endpoint, id string) string {
	if id == "" {
		return endpoint
	}
	return endpoint + "?" + id
}

func (f *fakeAPI) respond(endpoint, id, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[apiKey(endpoint, id)] = []byte(body)
}

func (f *fakeAPI) fail(endpoint, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[apiKey(endpoint, id)] = err
}

func (f *fakeAPI) recover(endpoint, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, apiKey(endpoint, id))
}

func (f *fakeAPI) callCount(endpoint, id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[apiKey(endpoint, id)]
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeAPI) Fetch(_ context.Context, endpoint string, query map[string]string) ([]byte, error) {
	id := query["tconst"]
	if endpoint == domain.EndpointSearch {
		id = query["title"]
	}
	key := apiKey(endpoint, id)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[key]++
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if body, ok := f.responses[key]; ok {
		return body, nil
	}
	return nil, &domain.UpstreamError{StatusCode: 404, Body: "no fake response for " + key}
}

// testClock is a controllable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeStore is an in-memory domain.MovieStore with transactional snapshots.
type fakeStore struct {
	mu       *sync.Mutex
	state    *storeState
	inTx     bool
	failOn   map[string]error
	failOnce map[string]error // consumed by the next matching call
}

type storeState struct {
	nextMovieID int64
	nextItemID  int64
	movies      map[string]*domain.Movie
	items       map[string]*domain.WatchlistItem // key: user|movieID
	clock       func() time.Time
}

func newFakeStore() *fakeStore {
	clock := newTestClock()
	return &fakeStore{
		mu: &sync.Mutex{},
		state: &storeState{
			movies: make(map[string]*domain.Movie),
			items:  make(map[string]*domain.WatchlistItem),
			clock: func() time.Time {
				clock.Advance(time.Second)
				return clock.Now()
			},
		},
		failOn:   make(map[string]error),
		failOnce: make(map[string]error),
	}
}

func itemKey(userID string, movieID int64) string {
	return fmt.Sprintf("%s|%d", userID, movieID)
}

func (s *storeState) clone() *storeState {
	c := &storeState{
		nextMovieID: s.nextMovieID,
		nextItemID:  s.nextItemID,
		movies:      make(map[string]*domain.Movie, len(s.movies)),
		items:       make(map[string]*domain.WatchlistItem, len(s.items)),
		clock:       s.clock,
	}
	for k, m := range s.movies {
		cp := *m
		c.movies[k] = &cp
	}
	for k, it := range s.items {
		cp := *it
		c.items[k] = &cp
	}
	return c
}

func (s *fakeStore) injected(method string) error {
	if err := s.failOn[method]; err != nil {
		return err
	}
	if err := s.failOnce[method]; err != nil {
		delete(s.failOnce, method)
		return err
	}
	return nil
}

func (s *fakeStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) FindOrCreateMovie(_ context.Context, externalID string) (*domain.Movie, bool, error) {
	defer s.lock()()
	if err := s.injected("FindOrCreateMovie"); err != nil {
		return nil, false, err
	}

	if m, ok := s.state.movies[externalID]; ok {
		cp := *m
		return &cp, false, nil
	}

	s.state.nextMovieID++
	m := domain.NewMovie(externalID)
	m.ID = s.state.nextMovieID
	s.state.movies[externalID] = m
	cp := *m
	return &cp, true, nil
}

func (s *fakeStore) EnsureMovies(ctx context.Context, externalIDs []string) error {
	if err := s.injected("EnsureMovies"); err != nil {
		return err
	}
	for _, id := range externalIDs {
		if _, _, err := s.FindOrCreateMovie(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) SaveMovieFields(_ context.Context, externalID, title, imageURL string) error {
	defer s.lock()()
	if err := s.injected("SaveMovieFields"); err != nil {
		return err
	}

	m, ok := s.state.movies[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	m.Title = title
	m.ImageURL = imageURL
	return nil
}

func (s *fakeStore) FindOrCreateWatchlistItem(_ context.Context, userID string, movieID int64) (*domain.WatchlistItem, bool, error) {
	defer s.lock()()
	if err := s.injected("FindOrCreateWatchlistItem"); err != nil {
		return nil, false, err
	}

	key := itemKey(userID, movieID)
	if it, ok := s.state.items[key]; ok {
		cp := *it
		return &cp, false, nil
	}

	s.state.nextItemID++
	it := &domain.WatchlistItem{
		ID:        s.state.nextItemID,
		UserID:    userID,
		MovieID:   movieID,
		CreatedAt: s.state.clock(),
	}
	s.state.items[key] = it
	cp := *it
	return &cp, true, nil
}

func (s *fakeStore) DeleteWatchlistItem(_ context.Context, userID, externalID string) (int64, error) {
	defer s.lock()()
	if err := s.injected("DeleteWatchlistItem"); err != nil {
		return 0, err
	}

	m, ok := s.state.movies[externalID]
	if !ok {
		return 0, nil
	}
	key := itemKey(userID, m.ID)
	if _, ok := s.state.items[key]; !ok {
		return 0, nil
	}
	delete(s.state.items, key)
	return 1, nil
}

func (s *fakeStore) ListWatchlist(_ context.Context, userID string) ([]*domain.WatchlistItem, error) {
	defer s.lock()()
	if err := s.injected("ListWatchlist"); err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Movie, len(s.state.movies))
	for _, m := range s.state.movies {
		byID[m.ID] = m
	}

	var items []*domain.WatchlistItem
	for _, it := range s.state.items {
		if it.UserID != userID {
			continue
		}
		cp := *it
		movie := *byID[it.MovieID]
		cp.Movie = &movie
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// WithinTransaction runs fn against a snapshot that is committed only when
// fn succeeds, mirroring transaction and savepoint semantics.
func (s *fakeStore) WithinTransaction(_ context.Context, fn func(tx domain.MovieStore) error) error {
	unlock := s.lock()
	defer unlock()

	tx := &fakeStore{
		mu:       s.mu,
		state:    s.state.clone(),
		inTx:     true,
		failOn:   s.failOn,
		failOnce: s.failOnce,
	}
	if err := fn(tx); err != nil {
		return err
	}
	*s.state = *tx.state
	return nil
}

func (s *fakeStore) movie(externalID string) *domain.Movie {
	defer s.lock()()
	m, ok := s.state.movies[externalID]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (s *fakeStore) itemCount() int {
	defer s.lock()()
	return len(s.state.items)
}
