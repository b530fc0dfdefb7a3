package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"adhoc-index/internal/prefs"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ prefs.Store = (*Database)(nil)

// Get returns the value of key in node.
func (d *Database) Get(node, key string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return get(ctx, d.db, node, key)
}

// Put stores value under key, creating node and its ancestors.
func (d *Database) Put(node, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return put(ctx, d.db, node, key, value)
}

// Remove deletes key from node.
func (d *Database) Remove(node, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return remove(ctx, d.db, node, key)
}

// Keys returns the keys set on node, sorted.
func (d *Database) Keys(node string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return keys(ctx, d.db, node)
}

// Children returns the names of node's direct children, sorted.
func (d *Database) Children(node string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return children(ctx, d.db, node)
}

// NodeExists reports whether node exists.
func (d *Database) NodeExists(node string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return nodeExists(ctx, d.db, node)
}

// RemoveNode deletes node and its subtree in one transaction.
func (d *Database) RemoveNode(node string) error {
	return d.Apply(func(s prefs.Store) error {
		return s.RemoveNode(node)
	})
}

// Apply runs fn inside a transaction. Writes made through the Store passed
// to fn are committed together when fn returns nil.
func (d *Database) Apply(fn func(prefs.Store) error) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, start, err := d.beginBatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	return d.endBatch(tx, start, fn(&txStore{ctx: ctx, tx: tx}))
}

// Flush checkpoints the write-ahead log into the main database file.
func (d *Database) Flush() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("flush", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)")
	return err
}

// txStore is the Store view handed to Apply callbacks.
type txStore struct {
	ctx context.Context
	tx  *sql.Tx
}

func (s *txStore) Get(node, key string) (string, bool, error) { return get(s.ctx, s.tx, node, key) }
func (s *txStore) Put(node, key, value string) error         { return put(s.ctx, s.tx, node, key, value) }
func (s *txStore) Remove(node, key string) error             { return remove(s.ctx, s.tx, node, key) }
func (s *txStore) Keys(node string) ([]string, error)        { return keys(s.ctx, s.tx, node) }
func (s *txStore) Children(node string) ([]string, error)    { return children(s.ctx, s.tx, node) }
func (s *txStore) NodeExists(node string) (bool, error)      { return nodeExists(s.ctx, s.tx, node) }
func (s *txStore) RemoveNode(node string) error              { return removeNode(s.ctx, s.tx, node) }
func (s *txStore) Flush() error                              { return nil }

// Apply on a transaction view joins the enclosing transaction.
func (s *txStore) Apply(fn func(prefs.Store) error) error {
	return fn(s)
}

func get(ctx context.Context, q querier, node, key string) (value string, ok bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return "", false, err
	}

	err = q.QueryRowContext(ctx, "SELECT value FROM prefs WHERE node = ? AND key = ?", node, key).Scan(&value)
	if err == sql.ErrNoRows {
		err = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", node, key, err)
	}
	return value, true, nil
}

func put(ctx context.Context, q querier, node, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("put", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return err
	}
	if err = ensureNode(ctx, q, node); err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO prefs (node, key, value) VALUES (?, ?, ?)
		ON CONFLICT(node, key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%s', 'now')
	`, node, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", node, key, err)
	}
	return nil
}

// ensureNode inserts node and every missing ancestor.
func ensureNode(ctx context.Context, q querier, node string) error {
	if node == "" {
		return nil
	}

	segments := strings.Split(node, "/")
	parent := ""
	for i, name := range segments {
		path := strings.Join(segments[:i+1], "/")
		if _, err := q.ExecContext(ctx,
			"INSERT OR IGNORE INTO prefs_nodes (path, parent, name) VALUES (?, ?, ?)",
			path, parent, name,
		); err != nil {
			return fmt.Errorf("failed to create node %s: %w", path, err)
		}
		parent = path
	}
	return nil
}

func remove(ctx context.Context, q querier, node, key string) (err error) {
	start := time.Now()
	defer func() { recordQuery("remove", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, "DELETE FROM prefs WHERE node = ? AND key = ?", node, key)
	return err
}

func keys(ctx context.Context, q querier, node string) (out []string, err error) {
	start := time.Now()
	defer func() { recordQuery("keys", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return nil, err
	}
	return queryStrings(ctx, q, "SELECT key FROM prefs WHERE node = ? ORDER BY key", node)
}

func children(ctx context.Context, q querier, node string) (out []string, err error) {
	start := time.Now()
	defer func() { recordQuery("children", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return nil, err
	}
	return queryStrings(ctx, q, "SELECT name FROM prefs_nodes WHERE parent = ? ORDER BY name", node)
}

func nodeExists(ctx context.Context, q querier, node string) (exists bool, err error) {
	start := time.Now()
	defer func() { recordQuery("node_exists", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return false, err
	}
	err = q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM prefs_nodes WHERE path = ?)", node).Scan(&exists)
	return exists, err
}

func removeNode(ctx context.Context, q querier, node string) (err error) {
	start := time.Now()
	defer func() { recordQuery("remove_node", start, err) }()

	if err = prefs.ValidatePath(node); err != nil {
		return err
	}

	if node == "" {
		if _, err = q.ExecContext(ctx, "DELETE FROM prefs"); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, "DELETE FROM prefs_nodes WHERE path != ''")
		return err
	}

	pattern := likeEscape(node+"/") + "%"
	if _, err = q.ExecContext(ctx,
		`DELETE FROM prefs WHERE node = ? OR node LIKE ? ESCAPE '\'`, node, pattern,
	); err != nil {
		return fmt.Errorf("failed to remove keys under %s: %w", node, err)
	}
	if _, err = q.ExecContext(ctx,
		`DELETE FROM prefs_nodes WHERE path = ? OR path LIKE ? ESCAPE '\'`, node, pattern,
	); err != nil {
		return fmt.Errorf("failed to remove nodes under %s: %w", node, err)
	}
	return nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// likeEscape escapes LIKE wildcards so s matches literally.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
