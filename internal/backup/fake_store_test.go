package backup

import (
	"context"
	"errors"
	"sync"

	"github.com/PolarWolf314/instivault/internal/store"
)

type upsertCall struct {
	Collection string
	Records    []store.Record
}

// recordingStore is an in-memory RecordStore that remembers every Upsert.
type recordingStore struct {
	mu      sync.Mutex
	data    map[string][]store.Record
	upserts []upsertCall
	failOn  map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{data: map[string][]store.Record{}, failOn: map[string]error{}}
}

func (s *recordingStore) Select(_ context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Record
	for _, rec := range s.data[collection] {
		if rec.Owner() == filter.Owner && (filter.ID == "" || rec.ID() == filter.ID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *recordingStore) Insert(_ context.Context, collection string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[collection] = append(s.data[collection], rec)
	return nil
}

func (s *recordingStore) Update(context.Context, string, string, string, store.Record) error {
	return errors.New("not implemented")
}

func (s *recordingStore) Delete(context.Context, string, string, string) error {
	return errors.New("not implemented")
}

func (s *recordingStore) Upsert(_ context.Context, collection string, recs []store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts = append(s.upserts, upsertCall{Collection: collection, Records: recs})
	if err := s.failOn[collection]; err != nil {
		return err
	}
	s.data[collection] = append(s.data[collection], recs...)
	return nil
}

func (s *recordingStore) calls() []upsertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upsertCall(nil), s.upserts...)
}
