package regulations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/WOTOOOOOO/FAQ-tool/internal/metrics"
)

const metaDocHash = "doc_sha256"

// Index stores chunks in SQLite with an FTS5 table for BM25 ranking.
type Index struct {
	db *sql.DB
	// Monotonic so chunk IDs created within one millisecond still sort by
	// insertion order.
	entropy *ulid.LockedMonotonicReader
}

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	ix := &Index{
		db:      db,
		entropy: &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		},
	}
	if err := ix.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return ix, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ix.entropy).String()
}

func (ix *Index) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id          TEXT PRIMARY KEY,
			seq         INTEGER NOT NULL,
			text        TEXT NOT NULL,
			start_line  INTEGER NOT NULL,
			end_line    INTEGER NOT NULL
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			text,
			content=chunks,
			content_rowid=rowid
		)`,
		`CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
			INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
	}
	for _, s := range stmts {
		if _, err := ix.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// BuildResult reports what Build did.
type BuildResult struct {
	Built  bool   // false when the stored index already matched the document
	Chunks int    // chunks in the index after the call
	Hash   string // document fingerprint
}

// Message is the short status shown by the CLI.
func (r BuildResult) Message() string {
	if r.Built {
		return fmt.Sprintf("Index created (%d chunks)", r.Chunks)
	}
	return "Index already exists"
}

// Build chunks doc and replaces the stored chunks unless the stored
// fingerprint (document plus chunk options) already matches.
func (ix *Index) Build(ctx context.Context, doc string, opts Options) (BuildResult, error) {
	opts = opts.withDefaults()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d/%d/%d\n%s", opts.TargetSize, opts.MinSize, opts.MaxSize, doc)))
	hash := hex.EncodeToString(sum[:])

	var stored string
	err := ix.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaDocHash).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return BuildResult{}, fmt.Errorf("read meta: %w", err)
	}
	if stored == hash {
		n, err := ix.Count(ctx)
		return BuildResult{Chunks: n, Hash: hash}, err
	}

	chunks := ChunkText(doc, opts)

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return BuildResult{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return BuildResult{}, fmt.Errorf("clear chunks: %w", err)
	}
	for _, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, seq, text, start_line, end_line) VALUES (?, ?, ?, ?, ?)`,
			ix.newID(), c.Seq, c.Text, c.StartLine, c.EndLine)
		if err != nil {
			return BuildResult{}, fmt.Errorf("insert chunk: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaDocHash, hash)
	if err != nil {
		return BuildResult{}, fmt.Errorf("write meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return BuildResult{}, err
	}
	return BuildResult{Built: true, Chunks: len(chunks), Hash: hash}, nil
}

// Count returns the number of stored chunks.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Hit is a ranked chunk. Score is the raw BM25 value (lower is better);
// Confidence is the fraction of query terms present in the chunk.
type Hit struct {
	Chunk
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of a search.
type Result struct {
	Terms      []string `json:"terms"`
	Hits       []Hit    `json:"hits"`
	Confidence float64  `json:"confidence"` // mean of hit confidences, 0 without hits
}

// Search returns the top k chunks for query ranked by BM25. A query with no
// searchable terms returns an empty result.
func (ix *Index) Search(ctx context.Context, query string, k int) (Result, error) {
	if k <= 0 {
		k = 3
	}
	res := Result{Terms: metrics.Terms(query)}
	if len(res.Terms) == 0 {
		return res, nil
	}

	quoted := make([]string, len(res.Terms))
	for i, t := range res.Terms {
		quoted[i] = `"` + t + `"`
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT c.id, c.seq, c.text, c.start_line, c.end_line, bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY score, c.seq
		LIMIT ?`, strings.Join(quoted, " OR "), k)
	if err != nil {
		return res, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	total := 0.0
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Seq, &h.Text, &h.StartLine, &h.EndLine, &h.Score); err != nil {
			return res, err
		}
		h.Confidence = coverage(res.Terms, h.Text)
		total += h.Confidence
		res.Hits = append(res.Hits, h)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}
	if len(res.Hits) > 0 {
		res.Confidence = total / float64(len(res.Hits))
	}
	return res, nil
}

// coverage is the fraction of terms that appear as tokens of text.
func coverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, tok := range metrics.Tokens(text) {
		have[tok] = struct{}{}
	}
	n := 0
	for _, t := range terms {
		if _, ok := have[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(terms))
}
