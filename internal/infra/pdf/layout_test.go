package pdf_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"digest-extractor/internal/infra/pdf"
	"digest-extractor/internal/usecase/ingest"
)

func TestSplitBlocks(t *testing.T) {
	tests := []struct {
		name  string
		pages [][]string
		want  []ingest.Block
	}{
		{
			name:  "empty",
			pages: nil,
			want:  nil,
		},
		{
			name: "sections and paragraphs",
			pages: [][]string{{
				"SUPREME COURT",
				"Ruling on water rights",
				"The court upheld the lower decision.",
				"Costs were awarded.",
				"",
				"Appeal dismissed",
				"",
				"LEGISLATION:",
				"New transparency act",
				"Signed into law   on Monday.",
			}},
			want: []ingest.Block{
				{Section: "SUPREME COURT", Title: "Ruling on water rights", Summary: "The court upheld the lower decision. Costs were awarded."},
				{Section: "SUPREME COURT", Title: "Appeal dismissed", Summary: ""},
				{Section: "LEGISLATION", Title: "New transparency act", Summary: "Signed into law on Monday."},
			},
		},
		{
			name: "page end closes the open block and section carries over",
			pages: [][]string{
				{"COURTS", "First title", "first summary"},
				{"Second title", "second summary"},
			},
			want: []ingest.Block{
				{Section: "COURTS", Title: "First title", Summary: "first summary"},
				{Section: "COURTS", Title: "Second title", Summary: "second summary"},
			},
		},
		{
			name:  "one-rune titles are skipped",
			pages: [][]string{{"x", "", "OK title"}},
			want:  []ingest.Block{{Title: "OK title"}},
		},
		{
			name:  "numbers only are not headings",
			pages: [][]string{{"2024", "continues"}},
			want:  []ingest.Block{{Title: "2024", Summary: "continues"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pdf.SplitBlocks(tt.pages)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitBlocks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitBlocks_LongUppercaseLine(t *testing.T) {
	long := "THIS UPPERCASE SENTENCE IS FAR TOO LONG TO BE A SECTION HEADING BECAUSE IT RUNS PAST EIGHTY"
	got := pdf.SplitBlocks([][]string{{long, "body"}})
	if len(got) != 1 || got[0].Title != long {
		t.Fatalf("long uppercase line should be a title, got %+v", got)
	}

	got = pdf.SplitBlocks([][]string{{long + ":", "Title here"}})
	if len(got) != 1 || got[0].Section == "" {
		t.Fatalf("uppercase line ending in ':' should be a heading, got %+v", got)
	}
}
