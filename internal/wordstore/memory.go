package wordstore

import "context"

// MemoryStore is an in-process Store used by worker and property
// tests. It mirrors the upsert-by-(type,text) and
// increment-appearance-count semantics of PgStore without a database.
type MemoryStore struct {
	Documents        []ProcessingResult
	KeywordCounts    map[string]int // keyed by type+"\x00"+text
	TopicCounts      map[string]int
	KeywordAppearances map[int][]string // documentIndex -> keyword keys
	TopicAppearances   map[int][]string
	Targets          map[string]TargetDimension
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		KeywordCounts:      make(map[string]int),
		TopicCounts:        make(map[string]int),
		KeywordAppearances: make(map[int][]string),
		TopicAppearances:   make(map[int][]string),
		Targets:            make(map[string]TargetDimension),
	}
}

func (s *MemoryStore) Save(ctx context.Context, result ProcessingResult) error {
	docIndex := len(s.Documents)
	s.Documents = append(s.Documents, result)

	for _, kw := range result.Keywords {
		key := kw.Type + "\x00" + kw.Text
		s.KeywordCounts[key]++
		s.KeywordAppearances[docIndex] = append(s.KeywordAppearances[docIndex], key)
	}
	for _, tp := range result.Topics {
		key := tp.Type + "\x00" + tp.Text
		s.TopicCounts[key]++
		s.TopicAppearances[docIndex] = append(s.TopicAppearances[docIndex], key)
	}
	return nil
}

func (s *MemoryStore) SeedTargets(ctx context.Context, targets []TargetDimension) error {
	for _, t := range targets {
		if _, exists := s.Targets[t.ID]; !exists {
			s.Targets[t.ID] = t
		}
	}
	return nil
}
