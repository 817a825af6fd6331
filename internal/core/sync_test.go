package core

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// memStore is an in-memory Store that records write calls.
type memStore struct {
	mu       sync.Mutex
	records  []Record
	finds    int
	inserts  int
	findErr  error
	writeErr error
}

func (m *memStore) Find(ctx context.Context, scope Scope) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []Record
	for _, r := range m.records {
		if scope.Contains(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) InsertMany(ctx context.Context, records []Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.records = append(m.records, records...)
	return int64(len(records)), nil
}

func TestDelta(t *testing.T) {
	stored := []Record{
		{Latitude: 40, Longitude: -75, Country: "US"},
		{Latitude: math.NaN(), Longitude: math.NaN(), Country: "Ship"},
	}
	candidates := NewRecordSet(
		Record{Latitude: 40, Longitude: -75, Country: "US"},
		Record{Latitude: 40, Longitude: -75, Country: "US", State: "Pennsylvania"},
		Record{Latitude: math.NaN(), Longitude: math.NaN(), Country: "Ship"},
	)

	delta := Delta(candidates, stored)
	if len(delta) != 1 {
		t.Fatalf("Delta() returned %d records, want 1: %+v", len(delta), delta)
	}
	if delta[0].State != "Pennsylvania" {
		t.Errorf("Delta() = %+v, want the Pennsylvania record", delta[0])
	}
}

func TestSync_InsertsOnlyNew(t *testing.T) {
	store := &memStore{records: []Record{{Latitude: 40, Longitude: -75, Country: "US"}}}
	candidates := NewRecordSet(
		Record{Latitude: 40, Longitude: -75, Country: "US"},
		Record{Latitude: 41, Longitude: -76, Country: "US"},
	)

	n, err := NewSynchronizer(store).Sync(context.Background(), candidates, NewScope("US", ""))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Sync() inserted %d, want 1", n)
	}
	if store.inserts != 1 {
		t.Errorf("InsertMany called %d times, want 1", store.inserts)
	}
	if len(store.records) != 2 {
		t.Errorf("store holds %d records, want 2", len(store.records))
	}
}

func TestSync_EmptyDeltaWritesNothing(t *testing.T) {
	existing := Record{Latitude: 40, Longitude: -75, Country: "US"}
	store := &memStore{records: []Record{existing}}

	n, err := NewSynchronizer(store).Sync(context.Background(), NewRecordSet(existing), AnyScope())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Sync() inserted %d, want 0", n)
	}
	if store.inserts != 0 {
		t.Errorf("InsertMany called %d times, want 0", store.inserts)
	}
}

func TestSync_Idempotent(t *testing.T) {
	store := &memStore{}
	candidates := NewRecordSet(
		Record{Latitude: 40, Longitude: -75, Country: "US"},
		Record{Latitude: math.NaN(), Longitude: math.NaN(), Country: "Ship"},
	)
	s := NewSynchronizer(store)

	first, err := s.Sync(context.Background(), candidates, AnyScope())
	if err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	second, err := s.Sync(context.Background(), candidates, AnyScope())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	if first != 2 || second != 0 {
		t.Errorf("inserted %d then %d, want 2 then 0", first, second)
	}
	if store.inserts != 1 {
		t.Errorf("InsertMany called %d times, want 1", store.inserts)
	}
}

func TestSync_FindErrorAbortsBeforeWrite(t *testing.T) {
	store := &memStore{findErr: errors.New("connection refused")}
	candidates := NewRecordSet(Record{Latitude: 1, Longitude: 2, Country: "US"})

	_, err := NewSynchronizer(store).Sync(context.Background(), candidates, AnyScope())
	if err == nil {
		t.Fatal("Sync() expected error")
	}
	if !errors.Is(err, store.findErr) {
		t.Errorf("Sync() error = %v, want wrapped find error", err)
	}
	if store.inserts != 0 {
		t.Errorf("InsertMany called %d times after failed read", store.inserts)
	}
}

func TestSync_WriteError(t *testing.T) {
	store := &memStore{writeErr: errors.New("disk full")}
	candidates := NewRecordSet(Record{Latitude: 1, Longitude: 2, Country: "US"})

	n, err := NewSynchronizer(store).Sync(context.Background(), candidates, AnyScope())
	if !errors.Is(err, store.writeErr) {
		t.Fatalf("Sync() error = %v, want wrapped write error", err)
	}
	if n != 0 {
		t.Errorf("Sync() = %d, want 0 on error", n)
	}
}
