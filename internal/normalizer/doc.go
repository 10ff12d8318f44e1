// Package normalizer builds the text that represents a code element for embedding.
//
// Two pure functions are provided. BuildSearchableText joins an element's
// name, signature and docstring; SanitizeForEmbedding reduces any text (an
// element's searchable text at index time, a raw query at search time) to the
// canonical form sent to the embedding provider:
//
//	text := normalizer.BuildSearchableText("login", "def login(user)", "Log a user in.")
//	// "login def login(user) Log a user in."
//	clean := normalizer.SanitizeForEmbedding(text)
//	// "login def login user log a user in."
//
// Both functions are deterministic and safe for concurrent use.
package normalizer
