package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion identifies the terms splitting rules.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v1.0"
	// RunesPerToken is an approximation for token counting.
	RunesPerToken = 4.0
)

// BuildStats describes a completed record build.
type BuildStats struct {
	Records int `json:"records"`
	// Dimension is the embedding size observed in the build.
	Dimension int `json:"dimension"`
	Batches   int `json:"batches"`
	// TokenStats are estimated from rune counts of the embedded texts.
	TokenStats TokenStats `json:"token_stats"`
	// IndexVersion is a hash of chunker version, embedding model and chunking params.
	IndexVersion string `json:"index_version"`
}

// TokenStats contains statistics about estimated token counts.
type TokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func computeBuildStats(texts []string, dim, batches int, modelName string) *BuildStats {
	counts := make([]int, 0, len(texts))
	for _, t := range texts {
		n := int(math.Round(float64(utf8.RuneCountInString(t)) / RunesPerToken))
		if n < 1 {
			n = 1
		}
		counts = append(counts, n)
	}

	input := fmt.Sprintf("%s|%s|minSection=%d|window=%d/%d",
		ChunkerVersion, modelName, minSectionRunes, fallbackWindowRunes, fallbackStepRunes)
	hash := sha256.Sum256([]byte(input))

	return &BuildStats{
		Records:      len(texts),
		Dimension:    dim,
		Batches:      batches,
		TokenStats:   computeTokenStats(counts),
		IndexVersion: hex.EncodeToString(hash[:])[:16],
	}
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(counts []int) TokenStats {
	if len(counts) == 0 {
		return TokenStats{}
	}

	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
