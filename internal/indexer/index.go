package indexer

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"adhoc-index/internal/contenttype"
	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/metrics"
	"adhoc-index/internal/scheduler"
	"adhoc-index/internal/walker"

	"github.com/google/uuid"
)

const (
	// DefaultMaxDepth bounds how far below the root a refresh descends.
	DefaultMaxDepth = 12

	// DefaultRefreshDelay is the debounce applied to scheduled refreshes.
	DefaultRefreshDelay = 120 * time.Millisecond
)

// EventKind identifies what a published snapshot covers.
type EventKind int

const (
	// CategoriesChanged follows every publish of the category set.
	CategoriesChanged EventKind = iota
	// ListingChanged follows every publish of a per-category listing.
	ListingChanged
)

func (k EventKind) String() string {
	switch k {
	case CategoriesChanged:
		return "categories"
	case ListingChanged:
		return "listing"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a snapshot is published.
type Event struct {
	Kind     EventKind
	Category contenttype.Category
}

// Option configures an Index.
type Option func(*Index)

// WithMaxDepth overrides DefaultMaxDepth. Negative values are clamped to 0.
func WithMaxDepth(depth int) Option {
	return func(idx *Index) {
		if depth < 0 {
			depth = 0
		}
		idx.maxDepth = depth
	}
}

// Throttle pauses refresh passes under resource pressure.
type Throttle interface {
	IsPaused() bool
	// WaitIfPaused blocks while paused and returns false if the pass
	// should be abandoned.
	WaitIfPaused() bool
}

// WithThrottle makes every refresh pass wait on t before walking.
func WithThrottle(t Throttle) Option {
	return func(idx *Index) {
		idx.throttle = t
	}
}

// WithRefreshDelay overrides DefaultRefreshDelay.
func WithRefreshDelay(d time.Duration) Option {
	return func(idx *Index) {
		if d >= 0 {
			idx.delay = d
		}
	}
}

// Status summarizes the index for diagnostics.
type Status struct {
	Attached    bool
	Refreshing  bool
	Runs        int64
	Categories  int
	LastRefresh time.Time
	LastVisited int64
	Root        string
}

// Index groups every data file below a root by content-type category.
//
// The category set only grows during a refresh; a category is dropped when a
// completed listing for it comes up empty. Readers always see the last
// published snapshot and never wait for a walk.
type Index struct {
	id       string
	coord    *scheduler.Coordinator
	maxDepth int
	delay    time.Duration
	throttle Throttle

	attached atomic.Bool

	rootMu sync.RWMutex
	root   *filesystem.Node

	cacheMu sync.Mutex
	cache   map[string]contenttype.Category

	published atomic.Pointer[[]contenttype.Category]

	refreshing  atomic.Bool
	runs        atomic.Int64
	lastVisited atomic.Int64
	lastRefresh atomic.Value

	listMu   sync.Mutex
	listings map[string]*Listing

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]func(Event)
}

// New creates an attached Index for root. Refreshes run on coord.
func New(root *filesystem.Node, coord *scheduler.Coordinator, opts ...Option) *Index {
	idx := &Index{
		id:        uuid.NewString(),
		coord:     coord,
		maxDepth:  DefaultMaxDepth,
		delay:     DefaultRefreshDelay,
		root:      root,
		cache:     make(map[string]contenttype.Category),
		listings:  make(map[string]*Listing),
		observers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.attached.Store(true)
	empty := []contenttype.Category{}
	idx.published.Store(&empty)
	idx.lastRefresh.Store(time.Time{})
	return idx
}

// ID returns the namespace used for this index's scheduled tasks.
func (idx *Index) ID() string {
	return idx.id
}

// MaxDepth returns the configured walk depth.
func (idx *Index) MaxDepth() int {
	return idx.maxDepth
}

// Root returns the current root node.
func (idx *Index) Root() *filesystem.Node {
	idx.rootMu.RLock()
	defer idx.rootMu.RUnlock()
	return idx.root
}

// SetRoot replaces the root. The change applies from the next walk on.
func (idx *Index) SetRoot(root *filesystem.Node) {
	idx.rootMu.Lock()
	idx.root = root
	idx.rootMu.Unlock()
	logging.Debug("Index %s root set to %s", idx.id, root)
}

// Attached reports whether the index is live.
func (idx *Index) Attached() bool {
	return idx.attached.Load()
}

// Open attaches the index and schedules a refresh after the debounce delay.
func (idx *Index) Open() error {
	idx.attached.Store(true)
	return idx.coord.Schedule(idx.refreshID(), idx.delay, idx.Refresh)
}

// Close detaches the index. Pending work is cancelled and walks in progress
// stop at their next node.
func (idx *Index) Close() {
	idx.attached.Store(false)

	idx.listMu.Lock()
	listings := make([]*Listing, 0, len(idx.listings))
	for _, l := range idx.listings {
		listings = append(listings, l)
	}
	idx.listings = make(map[string]*Listing)
	idx.listMu.Unlock()

	for _, l := range listings {
		l.attached.Store(false)
	}

	cancelled := idx.coord.CancelPrefix(idx.id + ":")
	logging.Debug("Index %s closed, %d pending task(s) cancelled", idx.id, cancelled)
}

// Invalidate schedules a coalesced refresh of the category set and of every
// open listing.
func (idx *Index) Invalidate() {
	if !idx.attached.Load() {
		return
	}
	if err := idx.coord.Schedule(idx.refreshID(), idx.delay, idx.Refresh); err != nil {
		logging.Debug("Index %s: refresh not scheduled: %v", idx.id, err)
	}

	idx.listMu.Lock()
	listings := make([]*Listing, 0, len(idx.listings))
	for _, l := range idx.listings {
		listings = append(listings, l)
	}
	idx.listMu.Unlock()

	for _, l := range listings {
		if err := l.schedule(); err != nil {
			logging.Debug("Index %s: listing %s not scheduled: %v", idx.id, l.category, err)
		}
	}
}

// Refresh runs one full pass over the tree and publishes the merged category
// set. An aborted pass still publishes what it found before detaching.
func (idx *Index) Refresh() {
	if !idx.attached.Load() {
		metrics.IndexerAbortedTotal.Inc()
		return
	}
	if !idx.refreshing.CompareAndSwap(false, true) {
		// Same-id tasks never overlap on the coordinator; direct callers may.
		logging.Debug("Index %s: refresh already running, skipping", idx.id)
		return
	}
	defer idx.refreshing.Store(false)

	if idx.throttle != nil {
		if idx.throttle.IsPaused() {
			metrics.IndexerThrottledTotal.Inc()
			logging.Debug("Index %s: refresh waiting for memory pressure to clear", idx.id)
		}
		if !idx.throttle.WaitIfPaused() {
			metrics.IndexerAbortedTotal.Inc()
			return
		}
	}

	startTime := time.Now()
	metrics.IndexerIsRunning.Inc()
	metrics.IndexerRunsTotal.Inc()
	defer metrics.IndexerIsRunning.Dec()

	root := idx.Root()
	var visited int64
	completed := walker.Walk(root, idx.maxDepth, func(node *filesystem.Node) bool {
		if !idx.attached.Load() {
			return false
		}
		visited++
		idx.merge(contenttype.Classify(node.ContentType()))
		return idx.attached.Load()
	})

	metrics.IndexerFilesVisited.Add(float64(visited))
	idx.lastVisited.Store(visited)
	idx.runs.Add(1)

	if !completed {
		metrics.IndexerAbortedTotal.Inc()
		logging.Debug("Index %s: refresh aborted after %d file(s)", idx.id, visited)
	}

	count := idx.publish()

	duration := time.Since(startTime)
	idx.lastRefresh.Store(time.Now())
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())

	logging.Debug("Index refresh complete: %d files visited, %d categories in %v", visited, count, duration)
}

// Categories returns a copy of the last published category set.
func (idx *Index) Categories() []contenttype.Category {
	current := *idx.published.Load()
	out := make([]contenttype.Category, len(current))
	copy(out, current)
	return out
}

// ListFiles walks the tree and returns every data file whose category equals
// cat, sorted by name ignoring case with ties broken by path. A completed walk
// that finds nothing drops cat from the category set.
func (idx *Index) ListFiles(cat contenttype.Category) []*filesystem.Node {
	files, _ := idx.listFiles(cat, idx.attached.Load)
	return files
}

func (idx *Index) listFiles(cat contenttype.Category, live func() bool) ([]*filesystem.Node, bool) {
	startTime := time.Now()
	var files []*filesystem.Node
	completed := false
	if live == nil || live() {
		files, completed = walker.Collect(idx.Root(), idx.maxDepth, live, func(node *filesystem.Node) bool {
			return contenttype.Classify(node.ContentType()).Equal(cat)
		})
	}
	metrics.IndexerListingDuration.Observe(time.Since(startTime).Seconds())

	if !completed {
		metrics.IndexerListingsTotal.WithLabelValues("aborted").Inc()
		return files, false
	}

	sortFiles(files)

	if len(files) == 0 {
		metrics.IndexerListingsTotal.WithLabelValues("pruned").Inc()
		if idx.prune(cat) {
			logging.Debug("Index %s: category %s pruned", idx.id, cat)
			idx.publish()
		}
		return files, true
	}

	metrics.IndexerListingsTotal.WithLabelValues("complete").Inc()
	return files, true
}

// Listing returns the listing for cat, creating it on first use. The same
// listing is returned until it is closed.
func (idx *Index) Listing(cat contenttype.Category) *Listing {
	idx.listMu.Lock()
	defer idx.listMu.Unlock()

	if l, ok := idx.listings[cat.Key()]; ok {
		return l
	}
	l := newListing(idx, cat)
	idx.listings[cat.Key()] = l
	return l
}

func (idx *Index) forget(l *Listing) {
	idx.listMu.Lock()
	defer idx.listMu.Unlock()
	if current, ok := idx.listings[l.category.Key()]; ok && current == l {
		delete(idx.listings, l.category.Key())
	}
}

// Subscribe registers fn for change notifications. The returned function
// removes the registration.
func (idx *Index) Subscribe(fn func(Event)) func() {
	idx.obsMu.Lock()
	id := idx.nextObs
	idx.nextObs++
	idx.observers[id] = fn
	idx.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			idx.obsMu.Lock()
			delete(idx.observers, id)
			idx.obsMu.Unlock()
		})
	}
}

// Status returns a diagnostic summary.
func (idx *Index) Status() Status {
	last, _ := idx.lastRefresh.Load().(time.Time)
	root := ""
	if r := idx.Root(); r != nil {
		root = r.Path()
	}
	return Status{
		Attached:    idx.attached.Load(),
		Refreshing:  idx.refreshing.Load(),
		Runs:        idx.runs.Load(),
		Categories:  len(*idx.published.Load()),
		LastRefresh: last,
		LastVisited: idx.lastVisited.Load(),
		Root:        root,
	}
}

func (idx *Index) refreshID() string {
	return idx.id + ":refresh"
}

func (idx *Index) listingID(cat contenttype.Category) string {
	return idx.id + ":list:" + cat.Key()
}

func (idx *Index) merge(cat contenttype.Category) {
	idx.cacheMu.Lock()
	if _, ok := idx.cache[cat.Key()]; !ok {
		idx.cache[cat.Key()] = cat
	}
	idx.cacheMu.Unlock()
}

func (idx *Index) prune(cat contenttype.Category) bool {
	idx.cacheMu.Lock()
	defer idx.cacheMu.Unlock()
	if _, ok := idx.cache[cat.Key()]; !ok {
		return false
	}
	delete(idx.cache, cat.Key())
	return true
}

// publish stores a sorted copy of the cache and notifies subscribers.
func (idx *Index) publish() int {
	idx.cacheMu.Lock()
	snapshot := make([]contenttype.Category, 0, len(idx.cache))
	for _, cat := range idx.cache {
		snapshot = append(snapshot, cat)
	}
	idx.cacheMu.Unlock()

	contenttype.Sort(snapshot)
	idx.published.Store(&snapshot)
	metrics.IndexerCategories.Set(float64(len(snapshot)))

	idx.notify(Event{Kind: CategoriesChanged})
	return len(snapshot)
}

func (idx *Index) notify(ev Event) {
	idx.obsMu.Lock()
	fns := make([]func(Event), 0, len(idx.observers))
	for _, fn := range idx.observers {
		fns = append(fns, fn)
	}
	idx.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func sortFiles(files []*filesystem.Node) {
	slices.SortFunc(files, func(a, b *filesystem.Node) int {
		if c := strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())); c != 0 {
			return c
		}
		return strings.Compare(a.Path(), b.Path())
	})
}
