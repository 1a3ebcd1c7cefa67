package pdf

import (
	"strings"
	"unicode"

	"digest-extractor/internal/usecase/ingest"
	"digest-extractor/internal/utils/text"
)

const maxHeadingRunes = 80

// SplitBlocks groups digest lines into article blocks.
//
// An empty string in a page's lines is a paragraph break. A heading line
// (uppercase, at most 80 runes, or uppercase ending in ':') starts a new
// section and is not part of any block. Within a block the first line is the
// title and the rest form the summary. Page ends close the open block.
func SplitBlocks(pages [][]string) []ingest.Block {
	var (
		blocks  []ingest.Block
		section string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		title := current[0]
		if text.CountRunes(title) >= 2 {
			blocks = append(blocks, ingest.Block{
				Section: section,
				Title:   title,
				Summary: strings.Join(current[1:], " "),
			})
		}
		current = nil
	}

	for _, lines := range pages {
		for _, raw := range lines {
			line := text.CollapseSpace(raw)
			switch {
			case line == "":
				flush()
			case isHeading(line):
				flush()
				section = strings.TrimSpace(strings.TrimSuffix(line, ":"))
			default:
				current = append(current, line)
			}
		}
		flush()
	}
	return blocks
}

func isHeading(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	if !hasLetter {
		return false
	}
	return text.CountRunes(line) <= maxHeadingRunes || strings.HasSuffix(line, ":")
}
