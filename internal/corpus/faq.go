package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFAQ reads the FAQ corpus from a JSON array file.
func LoadFAQ(path string) ([]FAQEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FAQ file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ParseFAQ(f)
}

// ParseFAQ decodes FAQ entries and drops those without a question.
func ParseFAQ(r io.Reader) ([]FAQEntry, error) {
	var raw []FAQEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode FAQ JSON: %w", err)
	}

	entries := make([]FAQEntry, 0, len(raw))
	for _, e := range raw {
		if strings.TrimSpace(e.Question) == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
