// Package types provides shared type definitions for semsearch.
//
// This package defines the domain types used across the extractor, the
// indexing pipeline, the vector store and the search engine, together with
// the error taxonomy every component reports through.
//
// # Core Types
//
// CodeElement represents one function or class declaration extracted from a
// Python source file:
//
//	elem := types.CodeElement{
//	    FilePath:   "app/auth.py",
//	    Name:       "login",
//	    Kind:       types.KindFunction,
//	    Signature:  "def login(user, password)",
//	    Docstring:  "Authenticate a user.",
//	    LineNumber: 12,
//	}
//
// SearchResult pairs an element with its cosine similarity to a query:
//
//	result := types.SearchResult{
//	    Element:    elem,
//	    Rank:       1,
//	    Similarity: 0.87,
//	}
//
// # Errors
//
// Every error surfaced by a component wraps exactly one of the category
// sentinels ErrParse, ErrConfiguration, ErrProvider or ErrStore, so callers
// classify failures with errors.Is:
//
//	if errors.Is(err, types.ErrProvider) {
//	    // skip the element and continue
//	}
//
// IsFatal reports whether an error must stop a run.
package types
