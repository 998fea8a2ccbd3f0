package persona

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned by Get for an unknown persona ID.
var ErrNotFound = errors.New("persona not found")

// Field names used by the chat pipeline.
const (
	FieldID            = "ID"
	FieldGender        = "성별"
	FieldAgeGroup      = "연령대"
	FieldOccupation    = "직업"
	FieldFamily        = "가족구성"
	FieldIncome        = "소득수준"
	FieldInterest      = "보험관심사"
	FieldDecisionStyle = "의사결정스타일"
)

// Persona is one customer profile row.
type Persona struct {
	ID     string
	Fields map[string]string
}

// Value returns the named field. Whitespace inside header names is ignored,
// so "가족 구성" and "가족구성" refer to the same column.
func (p Persona) Value(name string) string {
	if v, ok := p.Fields[name]; ok {
		return v
	}
	want := compact(name)
	for k, v := range p.Fields {
		if compact(k) == want {
			return v
		}
	}
	return ""
}

// Map returns a copy of the fields keyed by their whitespace-free names.
func (p Persona) Map() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		out[compact(k)] = v
	}
	return out
}

func (p Persona) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields)
}

// Store is an immutable in-memory persona table.
type Store struct {
	personas []Persona
	byID     map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: map[string]int{}}
}

// Load reads a persona CSV file.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open persona file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads CSV with a header row. Only rows whose ID starts with "P" are kept.
func Parse(r io.Reader) (*Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read persona header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	s := NewStore()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read persona row: %w", err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = strings.TrimSpace(row[i])
			} else {
				fields[name] = ""
			}
		}
		id := fields[FieldID]
		if !strings.HasPrefix(id, "P") {
			continue
		}
		if _, dup := s.byID[id]; dup {
			continue
		}
		s.byID[id] = len(s.personas)
		s.personas = append(s.personas, Persona{ID: id, Fields: fields})
	}
	return s, nil
}

// Len returns the number of personas.
func (s *Store) Len() int { return len(s.personas) }

// List returns up to limit personas, in file order, with any field containing
// keyword. An empty keyword matches everything; limit <= 0 means no limit.
func (s *Store) List(keyword string, limit int) []Persona {
	out := []Persona{}
	for _, p := range s.personas {
		if limit > 0 && len(out) >= limit {
			break
		}
		if keyword == "" || matches(p, keyword) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the persona with id.
func (s *Store) Get(id string) (Persona, error) {
	i, ok := s.byID[id]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.personas[i], nil
}

func matches(p Persona, keyword string) bool {
	for _, v := range p.Fields {
		if strings.Contains(v, keyword) {
			return true
		}
	}
	return false
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
