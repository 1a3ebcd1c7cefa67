package text_test

import (
	"testing"

	"digest-extractor/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "ASCII text", input: "hello", expected: 5},
		{name: "ASCII with spaces", input: "hello world", expected: 11},
		{name: "accented", input: "café crème", expected: 10},
		{name: "Japanese text", input: "こんにちは", expected: 5},
		{name: "mixed text", input: "hello世界", expected: 7},
		{name: "emoji", input: "Hello👋", expected: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.CountRunes(tt.input); got != tt.expected {
				t.Errorf("CountRunes(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "shorter than limit", input: "abc", n: 5, want: "abc"},
		{name: "exact limit", input: "abcde", n: 5, want: "abcde"},
		{name: "ASCII cut", input: "abcdef", n: 3, want: "abc"},
		{name: "multi-byte cut", input: "日本語テキスト", n: 3, want: "日本語"},
		{name: "emoji kept whole", input: "ab👋cd", n: 3, want: "ab👋"},
		{name: "zero limit", input: "abc", n: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.Truncate(tt.input, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "   ", want: ""},
		{input: "one", want: "one"},
		{input: "  one\n\ttwo   three ", want: "one two three"},
	}

	for _, tt := range tests {
		if got := text.CollapseSpace(tt.input); got != tt.want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
