// Package embedder turns text into fixed-dimension vectors using an embedding provider.
//
// Three providers implement the Embedder interface: OpenAI (the default),
// Jina AI, and an offline local provider that feature-hashes tokens. The HTTP
// providers retry transient failures with exponential backoff. A provider
// given a Cache answers repeated texts from an LRU keyed by model and text;
// in a batch only the uncached texts are sent.
//
// # Basic Usage
//
//	provider, err := embedder.New(embedder.Config{
//	    Provider:  "openai",
//	    APIKey:    os.Getenv("OPENAI_API_KEY"),
//	    CacheSize: 10000,
//	})
//	if err != nil {
//	    log.Fatal(err) // missing credential: types.ErrConfiguration
//	}
//
//	client := embedder.NewClient(provider, logger)
//	defer client.Close()
//
//	vec, err := client.Embed(ctx, "def parse_config(path)")
//
// # Client
//
// Client is what the indexer and searcher use. It sanitizes the text with
// normalizer.SanitizeForEmbedding, and when nothing is left it returns a zero
// vector of the provider's dimension without calling the provider. Every
// vector it returns has exactly Dimension() elements; anything else from the
// provider is reported as a provider error.
//
// EmbedBatch applies the same rules to many texts and sends the non-empty
// ones in GenerateBatch calls of at most MaxBatchSize texts. The indexer
// uses it for each file's elements.
//
// # Provider Comparison
//
// OpenAI:
//   - Dimensions: 1536 (text-embedding-3-small)
//   - Credential: OPENAI_API_KEY
//   - Requests go through the openai-go client with its own retries off
//
// Jina AI:
//   - Dimensions: 1024 (jina-embeddings-v3)
//   - Credential: JINA_API_KEY
//
// Local (offline):
//   - Dimensions: 384
//   - Lexical similarity only; useful for tests and air-gapped runs
//
// Both HTTP providers accept WithBaseURL, so any OpenAI-compatible gateway
// can be used.
//
// # Error Handling
//
//	_, err := client.Embed(ctx, text)
//	switch {
//	case errors.Is(err, types.ErrConfiguration):
//	    // fatal: fix configuration
//	case errors.Is(err, types.ErrProvider):
//	    // this text failed; callers may skip it
//	}
//
// 400, 401, 403 and 404 responses are not retried.
package embedder
