package store

import (
	"sync"

	xxhash "github.com/cespare/xxhash/v2"
)

type (
	// record is the stored value of one key plus its admission lock.
	// Its mode is never stored: it is always read from lock.
	record struct {
		// lock admits readers and writers of content.
		lock *RecordLock
		// key names the record.
		key string
		// content is written only by a committing writer that holds lock.
		content []byte
	}

	// storeShard owns the records whose keys hash to it.
	storeShard struct {
		// records maps keys to records.
		records map[string]*record
		// mu guards records; it is never held while waiting on a RecordLock.
		mu sync.RWMutex
	}
)

// mode reports the live occupancy of the record.
func (r *record) mode() Mode {
	return r.lock.CurrentMode()
}

// shardFor returns the shard owning key.
func (s *Store) shardFor(key string) *storeShard {
	if len(s.shards) == 1 {
		return s.shards[0]
	}

	//nolint:gosec // shard count is always >= 1, see New.
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// lookup returns the record for key, if any.
func (sh *storeShard) lookup(key string) (*record, bool) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[key]

	return rec, ok
}

// insert adds rec unless its key is taken. It reports whether rec was stored.
func (sh *storeShard) insert(rec *record) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.records[rec.key]; exists {
		return false
	}

	sh.records[rec.key] = rec

	return true
}

// recordCount safely reads the number of records in the shard.
func (sh *storeShard) recordCount() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return len(sh.records)
}
