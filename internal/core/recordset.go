package core

// RecordSet is an unordered set of records keyed by identity. It is not safe
// for concurrent use; ingestion fills it from a single goroutine after every
// file has finished.
type RecordSet struct {
	m map[Key]Record
}

// NewRecordSet returns a set holding records.
func NewRecordSet(records ...Record) *RecordSet {
	s := &RecordSet{m: make(map[Key]Record, len(records))}
	s.AddAll(records)
	return s
}

// Add inserts r and reports whether it was new.
func (s *RecordSet) Add(r Record) bool {
	k := r.Key()
	if _, ok := s.m[k]; ok {
		return false
	}
	s.m[k] = r
	return true
}

// AddAll inserts every record.
func (s *RecordSet) AddAll(records []Record) {
	for _, r := range records {
		s.Add(r)
	}
}

// Has reports whether a record with key k is in the set.
func (s *RecordSet) Has(k Key) bool {
	_, ok := s.m[k]
	return ok
}

// Len returns the number of distinct records.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Records returns the members in no particular order.
func (s *RecordSet) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, 0, len(s.m))
	for _, r := range s.m {
		out = append(out, r)
	}
	return out
}
