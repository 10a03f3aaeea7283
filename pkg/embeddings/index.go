package embeddings

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Index is a persistent chunk store backed by SQLite. Chunks are keyed by
// the JSON text of their id; putting an existing id replaces it.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) createSchema() error {
	_, err := x.db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		embedding TEXT,
		extra TEXT
	)`)
	return err
}

// Put inserts or replaces chunks in one transaction
func (x *Index) Put(ctx context.Context, chunks ...Chunk) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, text, embedding, extra)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			extra = excluded.extra`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		id, embedding, extra, err := encodeRow(c)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, c.Text, embedding, extra); err != nil {
			return fmt.Errorf("storing chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks and how many have embeddings
func (x *Index) Count(ctx context.Context) (total, embedded int, err error) {
	err = x.db.QueryRowContext(ctx,
		`SELECT count(*), count(embedding) FROM chunks`,
	).Scan(&total, &embedded)
	if err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return total, embedded, nil
}

// All returns every chunk in insertion order
func (x *Index) All(ctx context.Context) ([]Chunk, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT id, text, embedding, extra FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var id, text string
		var embedding, extra sql.NullString
		if err := rows.Scan(&id, &text, &embedding, &extra); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		c := Chunk{ID: json.RawMessage(id), Text: text}
		if embedding.Valid {
			if err := json.Unmarshal([]byte(embedding.String), &c.Embedding); err != nil {
				return nil, fmt.Errorf("decoding embedding of %s: %w", id, err)
			}
		}
		if extra.Valid {
			if err := json.Unmarshal([]byte(extra.String), &c.Extra); err != nil {
				return nil, fmt.Errorf("decoding fields of %s: %w", id, err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Search ranks the stored chunks against query
func (x *Index) Search(ctx context.Context, query []float32, limit int) ([]Result, error) {
	chunks, err := x.All(ctx)
	if err != nil {
		return nil, err
	}
	return Search(query, chunks, limit), nil
}

func encodeRow(c Chunk) (id string, embedding, extra sql.NullString, err error) {
	if len(c.ID) == 0 || bytes.Equal(bytes.TrimSpace(c.ID), []byte("null")) {
		return "", embedding, extra, fmt.Errorf("chunk has no id")
	}
	var compact json.RawMessage
	if compact, err = json.Marshal(c.ID); err != nil {
		return "", embedding, extra, fmt.Errorf("invalid id: %w", err)
	}
	id = string(compact)

	if c.HasEmbedding() {
		data, err := json.Marshal(c.Embedding)
		if err != nil {
			return "", embedding, extra, err
		}
		embedding = sql.NullString{String: string(data), Valid: true}
	}
	if len(c.Extra) > 0 {
		data, err := json.Marshal(c.Extra)
		if err != nil {
			return "", embedding, extra, err
		}
		extra = sql.NullString{String: string(data), Valid: true}
	}
	return id, embedding, extra, nil
}
