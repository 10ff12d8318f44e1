// Package storage persists indexed code elements and answers cosine similarity queries.
//
// Two backends implement VectorStore:
//   - SQLiteStore: a single-file database, the default. Built with the
//     sqlite_vec tag it uses mattn/go-sqlite3 with the sqlite-vec extension
//     and keeps a vec0 cosine index (vec_code_elements) beside the table;
//     otherwise it uses modernc.org/sqlite and ranks in Go.
//   - PostgresStore: PostgreSQL with pgvector, a vector(D) column and an
//     ivfflat index over vector_cosine_ops. Vectors cross the wire through
//     pgvector-go's pgx codec. Search ranks exactly so that zero-norm rows
//     and ties order the same way as in SQLite.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations (semantic versions)
//   - store_meta: the vector dimension (SQLite only; PostgreSQL keeps it in the column type)
//   - code_elements: one row per indexed function or class with its embedding
//   - vec_code_elements: the vec0 index (sqlite_vec builds), rebuilt by Init when it drifts
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, "~/.semsearch/index.db", 1536, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := &storage.Record{Element: elem, SearchableText: text, Embedding: vec}
//	if err := store.Insert(ctx, rec); err != nil {
//	    return err
//	}
//
//	hits, err := store.Search(ctx, queryVec, 5)
//	for _, h := range hits {
//	    fmt.Printf("%.3f %s\n", h.Similarity, h.Element.Name)
//	}
//
// # Ranking
//
// Results are ordered by ascending cosine distance, ties by ascending id
// (insertion order). Similarity is 1 - distance. A zero-norm vector is
// treated as orthogonal to everything: distance 1, similarity 0.
//
// # Errors
//
// Every error wraps types.ErrStore. Init fails with ErrDimensionMismatch when
// an existing store was created with a different dimension; Insert and
// Search fail the same way for vectors of the wrong length. Nothing is
// retried here.
package storage
