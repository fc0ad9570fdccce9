package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// NotifyChannel is the LISTEN/NOTIFY channel carrying changed collection paths
const NotifyChannel = "document_changes"

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	doc_id     TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection, doc_id);
`

// PostgresStore implements DocumentStore on a single jsonb table
type PostgresStore struct {
	db      *sql.DB
	connStr string
}

// NewPostgresStore creates a PostgreSQL-backed document store. connStr is used
// to open dedicated listener connections for subscriptions.
func NewPostgresStore(db *sql.DB, connStr string) *PostgresStore {
	return &PostgresStore{db: db, connStr: connStr}
}

// EnsureSchema creates the documents table if it does not exist
func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get retrieves a document by path
func (ps *PostgresStore) Get(ctx context.Context, path string) (Document, bool, error) {
	if _, _, err := Split(path); err != nil {
		return Document{}, false, err
	}

	var doc Document
	var data []byte
	err := ps.db.QueryRowContext(ctx,
		"SELECT path, doc_id, data FROM documents WHERE path = $1",
		path,
	).Scan(&doc.Path, &doc.ID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	doc.Data = data
	return doc, true, nil
}

// GetAll retrieves all documents of a collection
func (ps *PostgresStore) GetAll(ctx context.Context, collectionPath string) ([]Document, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT path, doc_id, data
		 FROM documents
		 WHERE collection = $1
		 ORDER BY doc_id COLLATE "C" ASC`,
		collectionPath,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.Path, &doc.ID, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return docs, nil
}

// Put creates or replaces a document
func (ps *PostgresStore) Put(ctx context.Context, path string, data any) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}

	_, err = ps.db.ExecContext(ctx,
		`INSERT INTO documents (path, collection, doc_id, data, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		path, collection, id, string(raw), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ps.notify(ctx, collection)
}

// Update merges top-level fields into an existing document using jsonb concatenation
func (ps *PostgresStore) Update(ctx context.Context, path string, patch map[string]any) error {
	collection, _, err := Split(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal patch for %s: %w", path, err)
	}

	res, err := ps.db.ExecContext(ctx,
		"UPDATE documents SET data = data || $2::jsonb, updated_at = $3 WHERE path = $1",
		path, string(raw), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return ps.notify(ctx, collection)
}

// Delete removes a document
func (ps *PostgresStore) Delete(ctx context.Context, path string) error {
	collection, _, err := Split(path)
	if err != nil {
		return err
	}

	res, err := ps.db.ExecContext(ctx, "DELETE FROM documents WHERE path = $1", path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil
	}
	return ps.notify(ctx, collection)
}

// Subscribe opens a LISTEN connection and re-reads the collection whenever a
// notification names it.
func (ps *PostgresStore) Subscribe(ctx context.Context, collectionPath string) (*Subscription, error) {
	listener := pq.NewListener(ps.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[Store] Listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(NotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan []Document, 1)

	go func() {
		defer close(ch)
		defer listener.Close()

		refresh := func() {
			docs, err := ps.GetAll(subCtx, collectionPath)
			if err != nil {
				log.Printf("[Store] Failed to refresh %s: %v", collectionPath, err)
				return
			}
			offer(ch, docs)
		}

		refresh()
		for {
			select {
			case <-subCtx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect; notifications may have been missed
				if n == nil || n.Extra == collectionPath {
					refresh()
				}
			case <-time.After(90 * time.Second):
				if err := listener.Ping(); err != nil {
					log.Printf("[Store] Listener ping failed: %v", err)
				}
			}
		}
	}()

	return NewSubscription(ch, cancel), nil
}

func (ps *PostgresStore) notify(ctx context.Context, collection string) error {
	if _, err := ps.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, collection); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
