package replay

import (
	"sort"

	"synth-exchange-stats/internal/domain"
)

// SortEvents orders events by (block_number ASC, log_index ASC).
// The sort is stable so equal positions keep their input order; the runner rejects them.
func SortEvents(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_number ASC, log_index ASC). Log indexes are block-wide.
func compareEvents(a, b *domain.Event) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}

// position is the chain position of the last event seen.
type position struct {
	set         bool
	blockNumber int64
	logIndex    int64
}

// advance accepts ev if it lies strictly after the current position.
func (p *position) advance(ev *domain.Event) bool {
	if p.set {
		prev := &domain.Event{BlockNumber: p.blockNumber, LogIndex: p.logIndex}
		if compareEvents(prev, ev) >= 0 {
			return false
		}
	}
	p.set = true
	p.blockNumber = ev.BlockNumber
	p.logIndex = ev.LogIndex
	return true
}
