package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/snepalysis/internal/logging"
)

// Delta returns the candidates whose identity key is absent from stored.
// The result holds each key at most once.
func Delta(candidates *RecordSet, stored []Record) []Record {
	existing := NewRecordSet(stored...)

	var out []Record
	for _, r := range candidates.Records() {
		if !existing.Has(r.Key()) {
			out = append(out, r)
		}
	}
	return out
}

// Synchronizer appends records that are not yet stored.
type Synchronizer struct {
	store Store
}

// NewSynchronizer creates a Synchronizer writing to store.
func NewSynchronizer(store Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// Sync reads the stored records within scope, computes the delta against
// candidates and appends it in one bulk write. It returns the number of
// records inserted. When the delta is empty no write is issued.
//
// Stored records are never updated or removed; identity alone decides.
func (s *Synchronizer) Sync(ctx context.Context, candidates *RecordSet, scope Scope) (int, error) {
	logger := logging.FromContext(ctx)

	stored, err := s.store.Find(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("load stored records: %w", err)
	}

	delta := Delta(candidates, stored)
	if len(delta) == 0 {
		logger.Info("no database entries to update",
			"candidates", candidates.Len(),
			"stored", len(stored),
		)
		return 0, nil
	}

	n, err := s.store.InsertMany(ctx, delta)
	if err != nil {
		return 0, fmt.Errorf("insert %d new records: %w", len(delta), err)
	}

	logger.Info("created new entries",
		"inserted", n,
		"candidates", candidates.Len(),
		"stored", len(stored),
	)
	return int(n), nil
}
