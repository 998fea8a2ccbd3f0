package prompt

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"haetsal-ai/internal/conversation"
	"haetsal-ai/internal/rag"
	"haetsal-ai/internal/sentiment"
)

// Input is everything a prompt can be built from. Only UserMessage is required.
type Input struct {
	UserMessage string
	History     []conversation.Turn
	RAGResults  []rag.SearchResult
	Emotion     *sentiment.Emotion
	// Persona holds customer profile fields keyed by column name.
	Persona map[string]string
}

// Stage is a compression step applied to an oversized prompt.
type Stage string

const (
	StageWhitespace Stage = "whitespace"
	StageExamples   Stage = "examples"
	StageHistory    Stage = "history"
)

// Report describes how a prompt was compressed.
type Report struct {
	OriginalLength int     `json:"original_length"`
	FinalLength    int     `json:"final_length"`
	Stages         []Stage `json:"stages"`
}

// Manager assembles LLM prompts. It is stateless and safe for concurrent use.
type Manager struct {
	cfg Config
}

// NewManager creates a manager. Zero-valued limits take their defaults.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = def.MaxLength
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = def.MaxHistoryTurns
	}
	if cfg.MaxRAGResults <= 0 {
		cfg.MaxRAGResults = def.MaxRAGResults
	}
	if cfg.RAGContentLimit <= 0 {
		cfg.RAGContentLimit = def.RAGContentLimit
	}
	if cfg.HistoryContentLimit <= 0 {
		cfg.HistoryContentLimit = def.HistoryContentLimit
	}
	return &Manager{cfg: cfg}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// Build returns the prompt for in.
func (m *Manager) Build(in Input) string {
	p, _ := m.BuildWithReport(in)
	return p
}

// BuildWithReport returns the prompt and the compression stages applied to it.
// Stages run in order until the prompt fits MaxLength; after the last stage
// the prompt is returned even if it is still too long.
func (m *Manager) BuildWithReport(in Input) (string, Report) {
	doc := m.document(in)
	prompt := doc.render()

	report := Report{OriginalLength: utf8.RuneCountInString(prompt), Stages: []Stage{}}
	fits := func() bool { return utf8.RuneCountInString(prompt) <= m.cfg.MaxLength }
	finish := func() (string, Report) {
		report.FinalLength = utf8.RuneCountInString(prompt)
		return prompt, report
	}

	if fits() {
		return finish()
	}

	prompt = collapseWhitespace(prompt)
	report.Stages = append(report.Stages, StageWhitespace)
	if fits() {
		return finish()
	}

	doc.examples = ""
	prompt = collapseWhitespace(doc.render())
	report.Stages = append(report.Stages, StageExamples)
	if fits() {
		return finish()
	}

	if len(doc.history) > recentTurns {
		doc.history = doc.history[len(doc.history)-recentTurns:]
	}
	prompt = collapseWhitespace(doc.render())
	report.Stages = append(report.Stages, StageHistory)
	return finish()
}

// document holds rendered sections so compression can drop parts of it.
type document struct {
	core     string
	persona  string
	emotion  string
	history  []string
	rag      []string
	examples string
	message  string
}

func (m *Manager) document(in Input) document {
	doc := document{
		core:    corePersona(m.cfg.Mode),
		message: in.UserMessage,
	}
	if len(in.Persona) > 0 {
		doc.persona = personaLine(in.Persona)
	}
	if in.Emotion != nil {
		doc.emotion = emotionLine(*in.Emotion)
	}
	if len(in.History) > 0 {
		turns := relevantHistory(in.History, in.UserMessage)
		if len(turns) > m.cfg.MaxHistoryTurns {
			turns = turns[len(turns)-m.cfg.MaxHistoryTurns:]
		}
		doc.history = historyLines(turns, m.cfg.HistoryContentLimit)
	}
	if len(in.RAGResults) > 0 {
		doc.rag = ragLines(in.RAGResults, m.cfg.MaxRAGResults, m.cfg.RAGContentLimit)
	}
	doc.examples = examplesSection(selectExamples(m.cfg.Mode, in.UserMessage, in.Emotion))
	return doc
}

func (d document) render() string {
	parts := []string{d.core, d.persona, d.emotion}
	if len(d.history) > 0 {
		parts = append(parts, "\n# 대화 맥락\n"+strings.Join(d.history, "\n"))
	}
	if len(d.rag) > 0 {
		parts = append(parts, "\n# 참고 정보\n"+strings.Join(d.rag, "\n"))
	}
	parts = append(parts, d.examples, "\nUser: "+d.message+"\nAssistant:")

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	spaceRuns  = regexp.MustCompile(` +`)
)

func collapseWhitespace(s string) string {
	s = blankLines.ReplaceAllString(s, "\n")
	return spaceRuns.ReplaceAllString(s, " ")
}

// referenceLength is the prompt size CompressionRatio is measured against.
const referenceLength = 8000

// Stats describes an assembled prompt.
type Stats struct {
	TotalLength int            `json:"total_length"`
	TotalLines  int            `json:"total_lines"`
	Sections    map[string]int `json:"sections"`
	// CompressionRatio is the length as a percentage of referenceLength, to one decimal.
	CompressionRatio float64 `json:"compression_ratio"`
}

// Stats measures prompt. Characters are attributed to the most recent
// heading line; text before any heading counts as "기본".
func (m *Manager) Stats(prompt string) Stats {
	lines := strings.Split(prompt, "\n")
	sections := map[string]int{}
	current := "기본"
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			current = strings.Trim(line, "# ")
			sections[current] = 0
			continue
		}
		sections[current] += utf8.RuneCountInString(line)
	}

	total := utf8.RuneCountInString(prompt)
	return Stats{
		TotalLength:      total,
		TotalLines:       len(lines),
		Sections:         sections,
		CompressionRatio: math.Round(float64(total)/referenceLength*1000) / 10,
	}
}
