package indexer

import (
	"sync/atomic"
	"time"

	"adhoc-index/internal/contenttype"
	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/logging"
)

// Listing is the file list of one category. Its walk runs on the index's
// coordinator and its result is published for Files to read.
type Listing struct {
	idx      *Index
	category contenttype.Category

	attached  atomic.Bool
	published atomic.Pointer[[]*filesystem.Node]
	updated   atomic.Value
}

func newListing(idx *Index, cat contenttype.Category) *Listing {
	l := &Listing{idx: idx, category: cat}
	empty := []*filesystem.Node{}
	l.published.Store(&empty)
	l.updated.Store(time.Time{})
	return l
}

// Category returns the category this listing covers.
func (l *Listing) Category() contenttype.Category {
	return l.category
}

// Open attaches the listing and schedules its walk.
func (l *Listing) Open() error {
	l.attached.Store(true)
	return l.schedule()
}

// Close detaches the listing. A walk in progress stops at its next node and
// publishes nothing.
func (l *Listing) Close() {
	l.attached.Store(false)
	l.idx.coord.Cancel(l.idx.listingID(l.category))
	l.idx.forget(l)
}

// Files returns a copy of the last published file list.
func (l *Listing) Files() []*filesystem.Node {
	current := *l.published.Load()
	out := make([]*filesystem.Node, len(current))
	copy(out, current)
	return out
}

// Updated returns when the listing was last published.
func (l *Listing) Updated() time.Time {
	t, _ := l.updated.Load().(time.Time)
	return t
}

func (l *Listing) live() bool {
	return l.attached.Load() && l.idx.attached.Load()
}

func (l *Listing) schedule() error {
	if !l.live() {
		return nil
	}
	return l.idx.coord.Schedule(l.idx.listingID(l.category), l.idx.delay, l.refresh)
}

func (l *Listing) refresh() {
	if !l.live() {
		return
	}
	files, completed := l.idx.listFiles(l.category, l.live)
	if !completed {
		logging.Debug("Listing %s aborted", l.category)
		return
	}
	l.published.Store(&files)
	l.updated.Store(time.Now())
	l.idx.notify(Event{Kind: ListingChanged, Category: l.category})
}
