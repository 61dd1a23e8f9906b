package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/busontime/busontime/internal/models"
)

var (
	// ErrNoFavorites is the aggregate error shown when nothing is configured.
	ErrNoFavorites = errors.New("favorites need to be configured; check the favorites file")
	// ErrRefreshInProgress is returned when a refresh starts before the
	// previous one settled.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// State is the phase of a fetch cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Fetcher returns the next arrival for a favorite.
type Fetcher interface {
	Fetch(ctx context.Context, f models.Favorite) (models.BusArrival, error)
}

// Entry is one favorite's displayed result. Arrival is nil when the
// favorite has no data.
type Entry struct {
	Favorite models.Favorite
	Arrival  *models.BusArrival
	Pending  bool
}

// SectionView is a display section with its entries.
type SectionView struct {
	Name    string
	Entries []Entry
}

// Snapshot is the dashboard's displayed state at one moment.
type Snapshot struct {
	State     State
	Err       error
	Sections  []SectionView
	UpdatedAt time.Time
}

// Loading reports whether a cycle is in flight; the refresh control is
// disabled while it is.
func (s Snapshot) Loading() bool {
	return s.State == StateLoading
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithObserver registers fn to receive a snapshot each time displayed state
// changes: on entering loading and once every favorite has settled.
func WithObserver(fn func(Snapshot)) Option {
	return func(d *Dashboard) {
		d.observer = fn
	}
}

// Dashboard tracks arrivals for a fixed set of favorites.
type Dashboard struct {
	favorites Favorites
	fetcher   Fetcher
	observer  func(Snapshot)
	now       func() time.Time

	mu        sync.Mutex
	state     State
	err       error
	results   map[string]*models.BusArrival
	updatedAt time.Time
}

// New creates a dashboard over favorites.
func New(favorites Favorites, fetcher Fetcher, opts ...Option) *Dashboard {
	d := &Dashboard{
		favorites: favorites,
		fetcher:   fetcher,
		now:       time.Now,
		results:   map[string]*models.BusArrival{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshot returns the current displayed state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Refresh runs one fetch cycle. Every favorite is fetched concurrently and
// the results are published together once all of them have settled; a
// failed favorite shows as no data without affecting the others.
func (d *Dashboard) Refresh(ctx context.Context) (Snapshot, error) {
	d.mu.Lock()
	if d.state == StateLoading {
		snap := d.snapshotLocked()
		d.mu.Unlock()
		return snap, ErrRefreshInProgress
	}

	if d.favorites.Len() == 0 {
		d.err = ErrNoFavorites
		d.state = StateIdle
		snap := d.snapshotLocked()
		d.mu.Unlock()
		d.notify(snap)
		return snap, ErrNoFavorites
	}

	d.state = StateLoading
	d.err = nil
	loading := d.snapshotLocked()
	d.mu.Unlock()
	d.notify(loading)

	results := d.fetchAll(ctx)

	d.mu.Lock()
	d.results = results
	d.updatedAt = d.now()
	d.state = StateSettled
	settled := d.snapshotLocked()
	d.state = StateIdle
	d.mu.Unlock()
	d.notify(settled)

	return settled, nil
}

// fetchAll waits for every favorite to settle. Failures never cancel siblings.
// Favorites sharing a key are fetched once.
func (d *Dashboard) fetchAll(ctx context.Context) map[string]*models.BusArrival {
	var favs []models.Favorite
	seen := make(map[string]bool)
	for _, f := range d.favorites.Flatten() {
		if !seen[f.Key()] {
			seen[f.Key()] = true
			favs = append(favs, f)
		}
	}
	slots := make([]*models.BusArrival, len(favs))

	var wg sync.WaitGroup
	for i, f := range favs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			arrival, err := d.fetcher.Fetch(ctx, f)
			if err != nil {
				slog.Warn("fetching arrival failed",
					"favorite", f.Name,
					"key", f.Key(),
					"error", err.Error(),
				)
				return
			}
			slots[i] = &arrival
		}()
	}
	wg.Wait()

	results := make(map[string]*models.BusArrival, len(favs))
	for i, f := range favs {
		results[f.Key()] = slots[i]
	}
	return results
}

func (d *Dashboard) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     d.state,
		Err:       d.err,
		UpdatedAt: d.updatedAt,
		Sections:  make([]SectionView, 0, len(d.favorites.Sections)),
	}

	for _, s := range d.favorites.Sections {
		view := SectionView{Name: s.Name, Entries: make([]Entry, 0, len(s.Favorites))}
		for _, f := range s.Favorites {
			entry := Entry{Favorite: f, Pending: d.state == StateLoading}
			if !entry.Pending {
				if a := d.results[f.Key()]; a != nil {
					copied := *a
					entry.Arrival = &copied
				}
			}
			view.Entries = append(view.Entries, entry)
		}
		snap.Sections = append(snap.Sections, view)
	}
	return snap
}

func (d *Dashboard) notify(snap Snapshot) {
	if d.observer != nil {
		d.observer(snap)
	}
}
