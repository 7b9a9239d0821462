// Package cache is the content-addressed suggestion cache.
//
// A Store maps a query key (the raw error or request text) to the last AI
// response computed for it, together with the digest of the source content
// that produced the response. The Resolver returns the stored response only
// when the digest of the current content matches; otherwise it calls the
// compute callback, stores the new pair and persists the whole snapshot.
//
// Two backends are provided: FileStore, a single JSON file written through
// afero with a temp-file-then-rename save, and SQLiteStore, a single-table
// SQLite database. Both treat a missing or unreadable backing file as an
// empty store. Concurrent writers are not coordinated; the last save wins.
package cache
