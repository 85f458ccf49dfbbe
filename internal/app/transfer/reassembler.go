/*
Package transfer implements chunk reassembly for large Base64 payloads.

Senders split a file or serialized-object payload into totalChunks Base64
fragments, delivered as 1-based indexed slots in any order. A transfer
completes once every slot has been written at least once; the combined slots
are then decoded into the original bytes and the record is discarded.
Incomplete transfers are evicted after a TTL so abandoned sends cannot grow
memory without bound.
*/
package transfer

import (
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holochat/internal/pkg/errs"
	"holochat/internal/pkg/logx"
)

// janitorInterval is how often stale incomplete transfers are scanned for.
const janitorInterval = time.Minute

// pending is the accumulation state of one in-flight transfer.
type pending struct {
	total    int
	slots    []string
	filled   []bool
	received int
	lastSeen time.Time
}

// Reassembler accumulates fragments for any number of concurrent transfers,
// keyed by a caller-chosen transfer identity.
type Reassembler struct {
	mu        sync.Mutex
	transfers map[string]*pending

	// ttl is the inactivity window after which an incomplete transfer is evicted.
	ttl time.Duration

	// now is the clock, replaceable in tests.
	now func() time.Time

	logger zerolog.Logger
}

// NewReassembler constructs a Reassembler with the given eviction window and
// starts the background janitor.
func NewReassembler(ttl time.Duration) *Reassembler {
	r := &Reassembler{
		transfers: make(map[string]*pending),
		ttl:       ttl,
		now:       time.Now,
		logger:    logx.Logger().With().Str("component", "Reassembler").Logger(),
	}

	go r.runJanitor()

	return r
}

// Add stores one fragment. The first fragment for an id fixes totalChunks and
// allocates the slot buffer; index is 1-based. A duplicate index overwrites its
// slot without advancing the received count. When the last empty slot fills,
// Add returns the decoded payload with done=true and discards the record.
//
// A fragment with an index outside [1, total], or declaring a total different
// from the first fragment, fails and discards the whole transfer record.
func (r *Reassembler) Add(id string, index, total int, chunk string) ([]byte, bool, *errs.CustomError) {
	r.mu.Lock()

	if index < 1 || total < 1 || index > total {
		delete(r.transfers, id)
		r.mu.Unlock()
		return nil, false, errs.NewError(errs.ErrChunkIndexOutOfRange, index, total)
	}

	p, ok := r.transfers[id]
	if !ok {
		p = &pending{
			total:  total,
			slots:  make([]string, total),
			filled: make([]bool, total),
		}
		r.transfers[id] = p
	} else if p.total != total {
		declared := p.total
		delete(r.transfers, id)
		r.mu.Unlock()
		return nil, false, errs.NewError(errs.ErrChunkCountMismatch, total, declared)
	}

	slot := index - 1
	if !p.filled[slot] {
		p.filled[slot] = true
		p.received++
	}
	p.slots[slot] = chunk
	p.lastSeen = r.now()

	if p.received < p.total {
		r.mu.Unlock()
		return nil, false, nil
	}

	delete(r.transfers, id)
	r.mu.Unlock()

	payload, err := base64.StdEncoding.DecodeString(strings.Join(p.slots, ""))
	if err != nil {
		r.logger.Warn().Str("transfer_id", id).Err(err).Msg("Completed transfer failed Base64 decoding.")
		return nil, false, errs.NewError(errs.ErrChunkEncoding)
	}

	return payload, true, nil
}

// PendingCount returns the number of in-flight transfers.
func (r *Reassembler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

// runJanitor periodically evicts transfers that have not seen a fragment
// within the TTL.
func (r *Reassembler) runJanitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.EvictStale()
	}
}

// EvictStale drops every incomplete transfer whose last fragment is older than
// the TTL and returns how many were dropped.
func (r *Reassembler) EvictStale() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)

	evicted := 0
	for id, p := range r.transfers {
		if p.lastSeen.After(cutoff) {
			continue
		}
		delete(r.transfers, id)
		evicted++
	}

	if evicted > 0 {
		r.logger.Info().Int("evicted", evicted).Int("remaining", len(r.transfers)).Msg("Evicted stale transfers.")
	}

	return evicted
}
