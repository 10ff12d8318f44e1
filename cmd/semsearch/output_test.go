package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/semsearch/internal/indexer"
	"github.com/dshills/semsearch/internal/storage"
	"github.com/dshills/semsearch/pkg/types"
)

func TestDocPreview(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "", want: ""},
		{name: "short", doc: "Add two numbers.", want: "Add two numbers."},
		{name: "flattens whitespace", doc: "Line one.\n\n    Line two.", want: "Line one. Line two."},
		{name: "exactly limit", doc: strings.Repeat("a", docPreviewLen), want: strings.Repeat("a", docPreviewLen)},
		{name: "truncated", doc: strings.Repeat("b", docPreviewLen+10), want: strings.Repeat("b", docPreviewLen) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, docPreview(tt.doc))
		})
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, "add", []types.SearchResult{{
		Rank:       1,
		Similarity: 0.91234,
		Element: types.CodeElement{
			FilePath:   "/src/calc.py",
			Name:       "add",
			Kind:       types.KindFunction,
			Signature:  "def add(a, b)",
			Docstring:  "Add two numbers.",
			LineNumber: 3,
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "0.912")
	assert.Contains(t, out, "/src/calc.py:3")
	assert.Contains(t, out, "def add(a, b)")
	assert.Contains(t, out, "Add two numbers.")
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, "nothing", nil)
	assert.Equal(t, "No results for \"nothing\"\n", buf.String())
}

func TestPrintIndexSummary(t *testing.T) {
	var buf bytes.Buffer
	printIndexSummary(&buf, &indexer.Statistics{
		FilesDiscovered:   3,
		FilesProcessed:    2,
		FilesSkipped:      1,
		ElementsExtracted: 10,
		ElementsIndexed:   9,
		ElementsSkipped:   1,
		ParseErrors:       1,
		ProviderErrors:    1,
		Duration:          1500 * time.Millisecond,
		ErrorMessages:     []string{"bad.py: parse error"},
	})

	out := buf.String()
	assert.Contains(t, out, "3 discovered, 2 processed, 1 skipped")
	assert.Contains(t, out, "10 extracted, 9 indexed, 1 skipped")
	assert.Contains(t, out, "1 parse, 0 read, 1 provider")
	assert.Contains(t, out, "bad.py: parse error")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &storage.Stats{TotalElements: 5, Functions: 3, Classes: 2, UniqueFiles: 2}, "sqlite")

	out := buf.String()
	assert.Contains(t, out, "Total elements: 5")
	assert.Contains(t, out, "Functions:      3")
	assert.Contains(t, out, "Classes:        2")
	assert.Contains(t, out, "Files indexed:  2")
}

func TestFormatHead(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, "[0.1000 0.2000 ...]", formatHead(vec, 2))
	assert.Equal(t, "[0.1000 0.2000 0.3000]", formatHead(vec, 10))
	assert.Equal(t, "[]", formatHead(vec, 0))
}
