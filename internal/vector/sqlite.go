// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/literature-assistant/pkg/types"
)

// SQLiteStore keeps vectors in a local SQLite database. Similarity is
// computed in process, which is fine at the corpus sizes a single
// assistant instance indexes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS vectors (
		id TEXT NOT NULL,
		namespace TEXT NOT NULL,
		embedding BLOB NOT NULL,
		metadata TEXT NOT NULL,
		PRIMARY KEY (id, namespace)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_vectors_namespace ON vectors(namespace)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating namespace index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Name identifies the provider.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Close releases the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Upsert writes records in a single transaction, replacing rows that share
// an ID within the namespace.
func (s *SQLiteStore) Upsert(ctx context.Context, namespace string, records []types.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO vectors (id, namespace, embedding, metadata) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, namespace, encodeVector(r.Values), string(meta)); err != nil {
			return fmt.Errorf("inserting vector %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Query scans the namespace, scores every row by cosine similarity, applies
// the metadata filter, and returns the topK rows in descending score order.
func (s *SQLiteStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]types.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, embedding, metadata FROM vectors WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []types.Match
	for rows.Next() {
		var id, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}

		if len(filter) > 0 && !metadataMatches(metaJSON, filter) {
			continue
		}

		var meta types.ChunkMetadata
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
		}

		stored, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector %s: %w", id, err)
		}

		matches = append(matches, types.Match{
			ID:       id,
			Score:    cosine(vector, stored),
			Metadata: meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// metadataMatches applies a flat equality filter against the raw metadata
// JSON. Values compare as their JSON string rendering, so numeric fields
// match against their decimal form.
func metadataMatches(metaJSON string, filter map[string]string) bool {
	var flat map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &flat); err != nil {
		return false
	}
	for key, want := range filter {
		got, ok := flat[key]
		if !ok {
			return false
		}
		var rendered string
		switch v := got.(type) {
		case string:
			rendered = v
		case float64:
			rendered = trimFloat(v)
		case bool:
			rendered = fmt.Sprintf("%t", v)
		default:
			return false
		}
		if rendered != want {
			return false
		}
	}
	return true
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// encodeVector packs float32 values little-endian.
func encodeVector(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// cosine is the cosine similarity of a and b; zero when either side has no
// magnitude or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// exportRecord is one row of the YAML export.
type exportRecord struct {
	ID       string              `yaml:"id"`
	Metadata types.ChunkMetadata `yaml:"metadata"`
}

// ExportYAML writes every record's metadata in the namespace to w as YAML,
// ordered by ID. Embeddings are omitted; the export is meant for inspecting
// what the index holds.
func (s *SQLiteStore) ExportYAML(ctx context.Context, namespace string, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, metadata FROM vectors WHERE namespace = ? ORDER BY id`, namespace)
	if err != nil {
		return fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var records []exportRecord
	for rows.Next() {
		var id, metaJSON string
		if err := rows.Scan(&id, &metaJSON); err != nil {
			return fmt.Errorf("scanning vector row: %w", err)
		}
		var meta types.ChunkMetadata
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return fmt.Errorf("decoding metadata for %s: %w", id, err)
		}
		records = append(records, exportRecord{ID: id, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating vectors: %w", err)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(records)
}
