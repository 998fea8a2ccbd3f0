package prompt

import "fmt"

// Mode selects how much persona text the prompt carries.
type Mode string

const (
	ModeCompact       Mode = "compact"
	ModeStandard      Mode = "standard"
	ModeComprehensive Mode = "comprehensive"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeCompact, ModeStandard, ModeComprehensive:
		return m, nil
	}
	return "", fmt.Errorf("unknown prompt mode %q", s)
}

// Config bounds the size of assembled prompts. Lengths are in runes.
type Config struct {
	Mode                Mode
	MaxLength           int
	MaxHistoryTurns     int
	MaxRAGResults       int
	RAGContentLimit     int
	HistoryContentLimit int
}

// DefaultConfig returns the standard-mode limits.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeStandard,
		MaxLength:           6000,
		MaxHistoryTurns:     5,
		MaxRAGResults:       3,
		RAGContentLimit:     300,
		HistoryContentLimit: 200,
	}
}
