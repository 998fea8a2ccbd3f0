package corpus

// FAQEntry is a single question/answer pair from the FAQ corpus.
type FAQEntry struct {
	Question string `json:"question"`
	Content  string `json:"content"`
	Subject  string `json:"subject,omitempty"`
}

// EmbeddingText is the text embedded for the entry.
func (f FAQEntry) EmbeddingText() string {
	return "Q: " + f.Question + "\nA: " + f.Content
}

// TermsChunk is a section of an insurance terms document.
type TermsChunk struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Filename    string `json:"filename"`
	ChunkIndex  int    `json:"chunk_index"`
	Content     string `json:"content"`
	FilePath    string `json:"file_path,omitempty"`
}

// EmbeddingText is the text embedded for the chunk.
func (c TermsChunk) EmbeddingText() string {
	return c.Content
}

// Embeddable is implemented by corpus entries that can be turned into vectors.
type Embeddable interface {
	FAQEntry | TermsChunk
	EmbeddingText() string
}

// EmbeddingRecord pairs a corpus entry with its precomputed embedding.
type EmbeddingRecord[T Embeddable] struct {
	Entry     T         `json:"entry"`
	Embedding []float32 `json:"embedding"`
}
