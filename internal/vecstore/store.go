// Package vecstore is the global embedding store: one sqlite database shared
// by all workspaces, holding one vector per logged checkpoint, keyed by a
// deterministic record ID and guarded by a content hash.
package vecstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cairnhq/cairn/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Record is one stored embedding.
type Record struct {
	ID          string
	Workspace   string
	SourceFile  string
	Position    int
	Vector      []float32
	ContentHash string
	CreatedAt   int64
}

// Match is a nearest-neighbor query result.
type Match struct {
	ID         string
	Similarity float64
}

// Store wraps the sqlite handle for the embedding table.
type Store struct {
	db *sql.DB
}

// Open initializes the embedding store at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open embedding store: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0o600)

	return &Store{db: db}, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func (s *Store) ConfigurePool(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		s.db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		s.db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS embeddings (
		  id           TEXT PRIMARY KEY,
		  workspace    TEXT NOT NULL,
		  source_file  TEXT NOT NULL,
		  position     INTEGER NOT NULL,
		  vector       BLOB NOT NULL,
		  content_hash TEXT NOT NULL,
		  created_at   INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_embeddings_workspace
		ON embeddings(workspace);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("apply schema v1: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// RecordID derives the deterministic embedding record ID for an entry at a
// position within a workspace source file. Re-embedding the same position
// with an unchanged content hash is a no-op.
func RecordID(workspace, sourceFile string, position int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", workspace, sourceFile, position))
	return hex.EncodeToString(h[:16])
}

// HashContent returns the content hash used to detect stale embeddings.
func HashContent(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Upsert inserts or replaces the record for rec.ID.
func (s *Store) Upsert(rec Record) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(`
		INSERT INTO embeddings (id, workspace, source_file, position, vector, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  workspace = excluded.workspace,
		  source_file = excluded.source_file,
		  position = excluded.position,
		  vector = excluded.vector,
		  content_hash = excluded.content_hash,
		  created_at = excluded.created_at`,
		rec.ID, rec.Workspace, rec.SourceFile, rec.Position,
		encodeVector(rec.Vector), rec.ContentHash, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", rec.ID, err)
	}
	return nil
}

// Has reports whether a record with the given ID and content hash exists,
// i.e. whether the stored embedding is already current.
func (s *Store) Has(id, contentHash string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM embeddings WHERE id = ? AND content_hash = ?",
		id, contentHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check embedding %s: %w", id, err)
	}
	return true, nil
}

// Vectors returns all stored vectors for one workspace, keyed by record ID.
// The workspace filter is mandatory; cross-workspace reads go through
// separate calls per workspace.
func (s *Store) Vectors(workspace string) (map[string][]float32, error) {
	rows, err := s.db.Query("SELECT id, vector FROM embeddings WHERE workspace = ?", workspace)
	if err != nil {
		return nil, fmt.Errorf("load vectors for %s: %w", workspace, err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vectors[id] = decodeVector(blob)
	}
	return vectors, rows.Err()
}

// VectorsByHash returns all stored vectors for one workspace, keyed by
// content hash. Entries with identical text share a hash and therefore a
// vector, which is what a caller matching by content wants.
func (s *Store) VectorsByHash(workspace string) (map[string][]float32, error) {
	rows, err := s.db.Query("SELECT content_hash, vector FROM embeddings WHERE workspace = ?", workspace)
	if err != nil {
		return nil, fmt.Errorf("load vectors for %s: %w", workspace, err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var hash string
		var blob []byte
		if err := rows.Scan(&hash, &blob); err != nil {
			return nil, err
		}
		vectors[hash] = decodeVector(blob)
	}
	return vectors, rows.Err()
}

// Search returns the records in a workspace closest to the query vector by
// cosine similarity, filtered by minSimilarity and sorted descending.
func (s *Store) Search(workspace string, query []float32, limit int, minSimilarity float64) ([]Match, error) {
	vectors, err := s.Vectors(workspace)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(vectors))
	for id, vec := range vectors {
		sim := Cosine(query, vec)
		if sim < minSimilarity {
			continue
		}
		matches = append(matches, Match{ID: id, Similarity: sim})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns the number of stored embeddings for a workspace.
func (s *Store) Count(workspace string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM embeddings WHERE workspace = ?", workspace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embeddings for %s: %w", workspace, err)
	}
	return n, nil
}

// DeleteWorkspace removes all records owned by a workspace. Called only when
// the workspace is purged.
func (s *Store) DeleteWorkspace(workspace string) error {
	if _, err := s.db.Exec("DELETE FROM embeddings WHERE workspace = ?", workspace); err != nil {
		return fmt.Errorf("delete embeddings for %s: %w", workspace, err)
	}
	return nil
}

// Cosine returns the cosine similarity of two vectors, or 0 when either has
// zero magnitude or the dimensions differ.
func Cosine(a, b []float32) float64 {
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

// encodeVector serializes a vector as little-endian float32 bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector deserializes little-endian float32 bytes.
func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
