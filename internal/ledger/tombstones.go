package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"tally/internal/core"
	"tally/internal/docstore"
)

// TombstoneIndex tracks, per series, the calendar dates the user explicitly
// removed. The expansion engine consults it so a deleted occurrence is never
// resurrected, no matter how many passes run afterwards. The index is cleared
// for a series only when the series is fully redefined.
type TombstoneIndex struct {
	mu    sync.RWMutex
	docs  docstore.Store
	dates map[string]map[core.Date]struct{}
}

type tombstoneDoc struct {
	Dates []core.Date `json:"dates"`
}

func NewTombstoneIndex(docs docstore.Store) *TombstoneIndex {
	return &TombstoneIndex{docs: docs, dates: make(map[string]map[core.Date]struct{})}
}

// Load reads the persisted index. One document per series key.
func (ix *TombstoneIndex) Load(ctx context.Context) error {
	docs, err := ix.docs.List(ctx, tombstonesCollection)
	if err != nil {
		return fmt.Errorf("load deleted occurrences: %w", err)
	}

	dates := make(map[string]map[core.Date]struct{}, len(docs))
	for _, doc := range docs {
		var payload tombstoneDoc
		if err := json.Unmarshal(doc.Data, &payload); err != nil {
			slog.WarnContext(ctx, "skipping unreadable tombstone document", "series", doc.ID, "error", err)
			continue
		}
		set := make(map[core.Date]struct{}, len(payload.Dates))
		for _, d := range payload.Dates {
			set[d] = struct{}{}
		}
		dates[doc.ID] = set
	}

	ix.mu.Lock()
	ix.dates = dates
	ix.mu.Unlock()
	return nil
}

// Record marks dates as permanently removed for a series and persists the
// series' document.
func (ix *TombstoneIndex) Record(ctx context.Context, seriesKey string, dates ...core.Date) error {
	if seriesKey == "" {
		return core.ErrMissingSeriesKey
	}
	if len(dates) == 0 {
		return nil
	}

	ix.mu.Lock()
	set := ix.dates[seriesKey]
	if set == nil {
		set = make(map[core.Date]struct{})
		ix.dates[seriesKey] = set
	}
	for _, d := range dates {
		set[d] = struct{}{}
	}
	all := make([]core.Date, 0, len(set))
	for d := range set {
		all = append(all, d)
	}
	ix.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	data, err := json.Marshal(tombstoneDoc{Dates: all})
	if err != nil {
		return fmt.Errorf("marshal tombstones for %s: %w", seriesKey, err)
	}
	if err := ix.docs.Set(ctx, tombstonesCollection, seriesKey, data); err != nil {
		return fmt.Errorf("persist tombstones for %s: %w", seriesKey, err)
	}
	return nil
}

// Contains reports whether a date was removed from the series.
func (ix *TombstoneIndex) Contains(seriesKey string, d core.Date) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.dates[seriesKey][d]
	return ok
}

// Clear drops every tombstone of a series. Called when the series is
// redefined wholesale, since the new rule supersedes the old deletion
// history.
func (ix *TombstoneIndex) Clear(ctx context.Context, seriesKey string) error {
	ix.mu.Lock()
	delete(ix.dates, seriesKey)
	ix.mu.Unlock()

	if err := ix.docs.Delete(ctx, tombstonesCollection, seriesKey); err != nil {
		return fmt.Errorf("clear tombstones for %s: %w", seriesKey, err)
	}
	return nil
}
