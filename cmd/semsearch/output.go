package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/semsearch/internal/indexer"
	"github.com/dshills/semsearch/internal/storage"
	"github.com/dshills/semsearch/pkg/types"
)

// docPreviewLen is the number of docstring characters shown by find
const docPreviewLen = 80

// printIndexSummary writes the end-of-run report
func printIndexSummary(w io.Writer, stats *indexer.Statistics) {
	fmt.Fprintf(w, "\n%s in %s\n", titleStyle.Render("Indexing complete"), stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Files:     %d discovered, %d processed, %d skipped\n",
		stats.FilesDiscovered, stats.FilesProcessed, stats.FilesSkipped)
	fmt.Fprintf(w, "  Elements:  %d extracted, %d indexed, %d skipped\n",
		stats.ElementsExtracted, stats.ElementsIndexed, stats.ElementsSkipped)

	skipped := stats.ParseErrors + stats.ReadErrors + stats.ProviderErrors
	if skipped == 0 {
		return
	}
	fmt.Fprintf(w, "  %s %d parse, %d read, %d provider\n",
		warnStyle.Render("Errors:   "), stats.ParseErrors, stats.ReadErrors, stats.ProviderErrors)
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(w, "    %s\n", dimStyle.Render(msg))
	}
}

// printResults writes ranked search results
func printResults(w io.Writer, query string, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}

	for _, r := range results {
		e := r.Element
		fmt.Fprintf(w, "%d. %s %s\n", r.Rank, nameStyle.Render(e.Name), scoreStyle.Render(fmt.Sprintf("(score: %.3f)", r.Similarity)))
		fmt.Fprintf(w, "   %s  %s\n", dimStyle.Render(fmt.Sprintf("%s:%d", e.FilePath, e.LineNumber)), e.Kind)
		fmt.Fprintf(w, "   %s\n", e.Signature)
		if preview := docPreview(e.Docstring); preview != "" {
			fmt.Fprintf(w, "   %s\n", dimStyle.Render(preview))
		}
		fmt.Fprintln(w)
	}
}

// docPreview flattens a docstring to one line and truncates it
func docPreview(doc string) string {
	doc = strings.Join(strings.Fields(doc), " ")
	runes := []rune(doc)
	if len(runes) <= docPreviewLen {
		return doc
	}
	return string(runes[:docPreviewLen]) + "..."
}

// printStats writes index counts
func printStats(w io.Writer, stats *storage.Stats, backend string) {
	fmt.Fprintln(w, titleStyle.Render("Index statistics"))
	fmt.Fprintf(w, "  Total elements: %d\n", stats.TotalElements)
	fmt.Fprintf(w, "  Functions:      %d\n", stats.Functions)
	fmt.Fprintf(w, "  Classes:        %d\n", stats.Classes)
	fmt.Fprintf(w, "  Files indexed:  %d\n", stats.UniqueFiles)
	fmt.Fprintf(w, "  Backend:        %s\n", backend)
}
