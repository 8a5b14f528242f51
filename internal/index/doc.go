// Package index stores the inverted index: documents, terms and the
// per-document frequency of each term, and answers ranked queries over it.
//
// Two backends implement Store. PostgresStore uses a pgx connection pool
// sized independently of the crawler's workers; every write is its own
// transaction and conflicts are resolved by the database, so concurrent
// writers never produce duplicate documents or terms. SQLiteStore keeps the
// index in a single file behind one connection, which serializes writes.
//
// Both backends share the same contract:
//   - AddDocument and AddTerm insert or return the existing id
//   - UpsertFrequency overwrites the count of an existing pair
//   - RankedSearch sums counts of the requested terms per document and
//     returns at most MaxResults URLs, highest sum first
//   - schema creation is idempotent
package index
