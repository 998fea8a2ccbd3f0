package corpus

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"haetsal-ai/internal/contextutil"
)

const (
	pageSeparator = "--- Page "

	minSectionRunes = 100
	minChunkRunes   = 50

	fallbackWindowRunes = 1000
	fallbackStepRunes   = 800
)

// sectionPattern matches article and chapter headings such as "제 3 조" or "제2장".
var sectionPattern = regexp.MustCompile(`제\s*\d+\s*[조장]`)

// SplitTermsContent splits a terms document into sections.
// Pages are separated by "--- Page " markers. Each page is cut at every article
// or chapter heading; text before the first heading is its own section. Pages
// without any heading are cut into overlapping fixed-size windows instead.
// Sections of 100 runes or fewer after trimming are dropped.
func SplitTermsContent(content string) []string {
	var chunks []string

	for _, page := range strings.Split(content, pageSeparator) {
		if strings.TrimSpace(page) == "" {
			continue
		}

		var sections []string
		locs := sectionPattern.FindAllStringIndex(page, -1)
		if len(locs) == 0 {
			sections = windows(page, fallbackWindowRunes, fallbackStepRunes)
		} else {
			if locs[0][0] > 0 {
				sections = append(sections, page[:locs[0][0]])
			}
			for i, loc := range locs {
				end := len(page)
				if i+1 < len(locs) {
					end = locs[i+1][0]
				}
				sections = append(sections, page[loc[0]:end])
			}
		}

		for _, section := range sections {
			section = strings.TrimSpace(section)
			if utf8.RuneCountInString(section) > minSectionRunes {
				chunks = append(chunks, section)
			}
		}
	}

	return chunks
}

func windows(s string, size, step int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// ChunkTermsFile turns one document's text into terms chunks.
func ChunkTermsFile(file TermsFile, content string) []TermsChunk {
	var chunks []TermsChunk
	for i, section := range SplitTermsContent(content) {
		if utf8.RuneCountInString(section) <= minChunkRunes {
			continue
		}
		chunks = append(chunks, TermsChunk{
			ID:          fmt.Sprintf("%s_%s_%s_%d", file.Category, file.Subcategory, file.Filename, i),
			Category:    file.Category,
			Subcategory: file.Subcategory,
			Filename:    file.Filename,
			ChunkIndex:  i,
			Content:     section,
			FilePath:    file.RelPath,
		})
	}
	return chunks
}

// LoadTerms scans root and chunks every supported document.
// Files that cannot be read are logged and skipped.
func LoadTerms(ctx context.Context, root string, extractor *Extractor) ([]TermsChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanTerms(ctx, root)
	if err != nil {
		return nil, err
	}

	var chunks []TermsChunk
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		content, err := extractor.ExtractText(file.AbsPath)
		if err != nil {
			logger.WarnContext(ctx, "failed to read terms file", "rel_path", file.RelPath, "error", err)
			continue
		}

		fileChunks := ChunkTermsFile(file, content)
		if len(fileChunks) == 0 {
			logger.WarnContext(ctx, "no chunks generated", "rel_path", file.RelPath)
			continue
		}
		chunks = append(chunks, fileChunks...)
	}

	logger.InfoContext(ctx, "terms loaded", "files", len(files), "chunks", len(chunks))
	return chunks, nil
}
