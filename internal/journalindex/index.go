// Package journalindex is a queryable secondary index over invocations
// committed to the primary content-addressed store. It is not itself a
// store.Backend: the journal stays the source of truth, this is a
// read-optimized side table the CLI's trace and replay commands query
// by invokable name, digest prefix, or time range, populated as
// invocations are recorded.
package journalindex

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"lukechampine.com/blake3"

	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Index is a SQLite-backed secondary index over invocations. SQLite only
// supports one writer at a time, so it is configured for a single
// connection in WAL mode, matching the primary store's own concurrency
// model.
type Index struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path, applying pragmas and
// migrations. Idempotent: safe to call multiple times against the same
// path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journalindex: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journalindex: connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("journalindex: pragma %q: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("journalindex: apply schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("journalindex: read user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("journalindex: set user_version: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	if idx.db == nil {
		return nil
	}
	return idx.db.Close()
}

// rowHash derives a stable content hash for an indexed row, so stale
// rows (e.g. a replayed invocation that now has a different parent
// pointer) can be detected without re-touching the primary store.
func rowHash(digest, invokableName, invokableDigest string, completed, successful bool, parentDigest string) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%v|%v|%s", digest, invokableName, invokableDigest, completed, successful, parentDigest)))
	return fmt.Sprintf("%x", sum)
}

// Record upserts an index row for inv and, recursively, for every child;
// rows already present are overwritten. parentDigest is empty for a top-level
// invocation.
func Record(ctx context.Context, idx *Index, st *store.Store, invocationRef resource.Reference, inv *invoke.Invocation, parentDigest string, recordedAt int64) error {
	r, err := st.Checkout(ctx, inv.RequestRef)
	if err != nil {
		return err
	}
	request, ok := r.(*invoke.Request)
	if !ok {
		return fmt.Errorf("journalindex: request checkout is not a Request")
	}

	successful, err := inv.Successful(ctx, st)
	if err != nil {
		return err
	}

	hash := rowHash(invocationRef.Digest, request.Invokable.Type.Name, request.Invokable.Digest, true, successful, parentDigest)

	_, err = idx.db.ExecContext(ctx, `
		INSERT INTO invocations (digest, invokable_name, invokable_digest, row_hash, completed, successful, parent_digest, recorded_at)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET row_hash = excluded.row_hash, successful = excluded.successful, parent_digest = excluded.parent_digest, recorded_at = excluded.recorded_at
	`, invocationRef.Digest, request.Invokable.Type.Name, request.Invokable.Digest, hash, successful, nullableString(parentDigest), recordedAt)
	if err != nil {
		return fmt.Errorf("journalindex: upsert %s: %w", invocationRef.Digest, err)
	}

	return recordChildren(ctx, idx, st, inv, invocationRef.Digest, recordedAt)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// recordChildren walks inv's recorded children, indexing each by its own
// committed reference (recovered from the Response's Children list
// rather than recomputed, since the engine already committed them).
func recordChildren(ctx context.Context, idx *Index, st *store.Store, inv *invoke.Invocation, parentDigest string, recordedAt int64) error {
	r, err := st.Checkout(ctx, inv.ResponseRef)
	if err != nil {
		return err
	}
	response, ok := r.(*invoke.Response)
	if !ok {
		return fmt.Errorf("journalindex: response checkout is not a Response")
	}
	for _, childRef := range response.Children {
		cr, err := st.Checkout(ctx, childRef)
		if err != nil {
			return err
		}
		child, ok := cr.(*invoke.Invocation)
		if !ok {
			return fmt.Errorf("journalindex: child checkout is not an Invocation")
		}
		if err := Record(ctx, idx, st, childRef, child, parentDigest, recordedAt); err != nil {
			return err
		}
	}
	return nil
}

// ByInvokableName returns the digests of every indexed invocation of the
// named invokable, most recently recorded first.
func ByInvokableName(ctx context.Context, idx *Index, name string, limit int) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT digest FROM invocations WHERE invokable_name = ? ORDER BY recorded_at DESC LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, err
		}
		digests = append(digests, digest)
	}
	return digests, rows.Err()
}

// ByDigestPrefix returns the digests of every indexed invocation whose
// digest starts with prefix.
func ByDigestPrefix(ctx context.Context, idx *Index, prefix string, limit int) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT digest FROM invocations WHERE digest LIKE ? ORDER BY recorded_at DESC LIMIT ?
	`, prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, err
		}
		digests = append(digests, digest)
	}
	return digests, rows.Err()
}

// InRange returns the digests of every indexed invocation recorded
// between fromMs and toMs inclusive, oldest first.
func InRange(ctx context.Context, idx *Index, fromMs, toMs int64) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT digest FROM invocations WHERE recorded_at BETWEEN ? AND ? ORDER BY recorded_at ASC
	`, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, err
		}
		digests = append(digests, digest)
	}
	return digests, rows.Err()
}
