// Package searcher answers natural-language queries against the code index.
//
// A query is sanitized and embedded the same way element text is at index
// time, then the vector store returns the nearest elements by cosine
// distance.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, client, logger)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "parse configuration file",
//	    Limit: 5,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (%.3f) %s:%d\n",
//	        r.Rank, r.Element.Name, r.Similarity, r.Element.FilePath, r.Element.LineNumber)
//	}
//
// # Ranking
//
// Results are ordered by descending similarity; equal scores keep insertion
// order. Ranks are 1-based. A query that sanitizes to an empty string embeds
// as the zero vector without calling the provider and every element scores 0.
//
// # Query Caching
//
// With UseCache set and a positive CacheTTL, responses are kept in an LRU
// cache of 1000 entries keyed on the sanitized query and limit:
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    Query:    "http retry",
//	    UseCache: true,
//	    CacheTTL: 5 * time.Minute,
//	})
//	fmt.Println(resp.CacheHit)
//
// Callers that change the index call InvalidateCache afterwards. Cached
// responses are deep copies, so callers may modify what they receive.
//
// # Errors
//
// Embedding failures are returned wrapped and keep their category
// (types.ErrProvider, types.ErrConfiguration). Store failures are returned as
// is and wrap types.ErrStore.
package searcher
