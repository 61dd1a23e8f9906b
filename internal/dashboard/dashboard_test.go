package dashboard

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busontime/busontime/internal/models"
)

type mockFetcher struct {
	arrivals map[string]models.BusArrival
	fail     map[string]error

	// when set, every Fetch blocks until release is closed
	started chan string
	release chan struct{}

	mu    sync.Mutex
	calls []string
}

func (m *mockFetcher) Fetch(ctx context.Context, f models.Favorite) (models.BusArrival, error) {
	m.mu.Lock()
	m.calls = append(m.calls, f.Key())
	m.mu.Unlock()

	if m.started != nil {
		m.started <- f.Key()
	}
	if m.release != nil {
		<-m.release
	}

	if err := m.fail[f.Key()]; err != nil {
		return models.BusArrival{}, err
	}
	return m.arrivals[f.Key()], nil
}

var (
	favA = models.Favorite{Name: "Home", CityCode: "25", NodeID: "N1", RouteID: "R1"}
	favB = models.Favorite{Name: "Office", CityCode: "25", NodeID: "N2", RouteID: "R2"}
	favC = models.Favorite{Name: "Gym", CityCode: "25", NodeID: "N3", RouteID: "R3"}
)

func threeFavorites() Favorites {
	return Favorites{Sections: []Section{
		{Name: "morning", Favorites: []models.Favorite{favA, favB}},
		{Name: "evening", Favorites: []models.Favorite{favC}},
	}}
}

func defaultFetcher() *mockFetcher {
	return &mockFetcher{
		arrivals: map[string]models.BusArrival{
			favA.Key(): {ArrivalSecs: 30, RouteNo: "101", NodeName: "City Hall"},
			favB.Key(): {ArrivalSecs: 125, RouteNo: "202", NodeName: "Station"},
			favC.Key(): {ArrivalSecs: 180, RouteNo: "303", NodeName: "Park"},
		},
		fail: map[string]error{},
	}
}

func entries(snap Snapshot) map[string]Entry {
	out := map[string]Entry{}
	for _, s := range snap.Sections {
		for _, e := range s.Entries {
			out[e.Favorite.Key()] = e
		}
	}
	return out
}

func TestRefreshAllSucceed(t *testing.T) {
	fetcher := defaultFetcher()
	d := New(threeFavorites(), fetcher)

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSettled, snap.State)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.UpdatedAt.IsZero())

	got := entries(snap)
	require.Len(t, got, 3)
	for _, f := range []models.Favorite{favA, favB, favC} {
		require.NotNil(t, got[f.Key()].Arrival, f.Name)
		assert.False(t, got[f.Key()].Pending)
	}
	assert.Len(t, fetcher.calls, 3)

	assert.Equal(t, StateIdle, d.Snapshot().State)
}

func TestRefreshSharedFavoriteAcrossSections(t *testing.T) {
	again := favA
	again.Name = "Home again"

	fetcher := defaultFetcher()
	d := New(Favorites{Sections: []Section{
		{Name: "morning", Favorites: []models.Favorite{favA, favB}},
		{Name: "evening", Favorites: []models.Favorite{again}},
	}}, fetcher)

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Sections, 2)
	morning := snap.Sections[0].Entries[0]
	evening := snap.Sections[1].Entries[0]
	assert.Equal(t, "Home again", evening.Favorite.Name)
	require.NotNil(t, morning.Arrival)
	require.NotNil(t, evening.Arrival)
	assert.Equal(t, *morning.Arrival, *evening.Arrival)

	assert.ElementsMatch(t, []string{favA.Key(), favB.Key()}, fetcher.calls)
}

func TestRefreshPartialFailure(t *testing.T) {
	fetcher := defaultFetcher()
	fetcher.fail[favB.Key()] = errors.New("HTTP 502")

	var seen []Snapshot
	d := New(threeFavorites(), fetcher, WithObserver(func(s Snapshot) {
		seen = append(seen, s)
	}))

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)

	got := entries(snap)
	assert.NotNil(t, got[favA.Key()].Arrival)
	assert.Nil(t, got[favB.Key()].Arrival)
	assert.NotNil(t, got[favC.Key()].Arrival)
	assert.NoError(t, snap.Err)

	// one loading snapshot with nothing resolved, then one with everything
	require.Len(t, seen, 2)
	assert.Equal(t, StateLoading, seen[0].State)
	for _, e := range entries(seen[0]) {
		assert.True(t, e.Pending)
		assert.Nil(t, e.Arrival)
	}
	assert.Equal(t, StateSettled, seen[1].State)
	assert.Len(t, entries(seen[1]), 3)
}

func TestRefreshFailureLogsOneLine(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	fetcher := defaultFetcher()
	fetcher.fail[favB.Key()] = errors.Wrap(errors.New("connection refused"), "calling proxy")

	_, err := New(threeFavorites(), fetcher).Refresh(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"), out)
	assert.Contains(t, out, "calling proxy: connection refused")
	assert.NotContains(t, out, ".go:")
}

func TestRefreshPublishesOnlyAfterAllSettle(t *testing.T) {
	fetcher := defaultFetcher()
	fetcher.fail[favC.Key()] = errors.New("connection refused")
	fetcher.started = make(chan string, 3)
	fetcher.release = make(chan struct{})

	d := New(threeFavorites(), fetcher)

	done := make(chan Snapshot)
	go func() {
		snap, _ := d.Refresh(context.Background())
		done <- snap
	}()

	for i := 0; i < 3; i++ {
		<-fetcher.started
	}

	during := d.Snapshot()
	assert.True(t, during.Loading())
	for _, e := range entries(during) {
		assert.True(t, e.Pending)
		assert.Nil(t, e.Arrival)
	}

	_, err := d.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(fetcher.release)
	snap := <-done

	got := entries(snap)
	assert.NotNil(t, got[favA.Key()].Arrival)
	assert.NotNil(t, got[favB.Key()].Arrival)
	assert.Nil(t, got[favC.Key()].Arrival)
	assert.Len(t, fetcher.calls, 3)
}

func TestRefreshNoFavorites(t *testing.T) {
	fetcher := defaultFetcher()
	d := New(Favorites{}, fetcher)

	snap, err := d.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoFavorites)
	assert.ErrorIs(t, snap.Err, ErrNoFavorites)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, fetcher.calls)
}

func TestRefreshClearsPreviousResults(t *testing.T) {
	fetcher := defaultFetcher()
	d := New(threeFavorites(), fetcher)

	_, err := d.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.fail[favA.Key()] = errors.New("gone")
	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)

	assert.Nil(t, entries(snap)[favA.Key()].Arrival)
	assert.NotNil(t, entries(snap)[favB.Key()].Arrival)
}

func TestSnapshotPreservesSections(t *testing.T) {
	d := New(threeFavorites(), defaultFetcher())
	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Sections, 2)
	assert.Equal(t, "morning", snap.Sections[0].Name)
	assert.Equal(t, "Home", snap.Sections[0].Entries[0].Favorite.Name)
	assert.Equal(t, "Office", snap.Sections[0].Entries[1].Favorite.Name)
	assert.Equal(t, "evening", snap.Sections[1].Name)
	assert.Equal(t, "Gym", snap.Sections[1].Entries[0].Favorite.Name)
}
