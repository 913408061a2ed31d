package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/tmreport/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "tmreport.db"

// ErrRevisionNotFound is returned when a requested revision does not exist.
var ErrRevisionNotFound = errors.New("revision not found")

// HistoryDB stores rendered revisions of threat models.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		revision_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		format TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		digest TEXT NOT NULL,
		model_json TEXT NOT NULL,
		output TEXT NOT NULL,
		risk_summary TEXT,
		risk_score INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_revisions_name ON revisions(name);
	CREATE INDEX IF NOT EXISTS idx_revisions_digest ON revisions(name, digest);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Revision is one stored rendering of a named threat model.
// Report and Output are only populated by the methods that load full
// revisions (GetRevision, LatestRevisions).
type Revision struct {
	ID          int64
	RevisionID  string
	Name        string
	Format      string
	CreatedAt   time.Time
	Digest      string
	RiskSummary map[string]int
	RiskScore   int

	Report *model.ThreatModelReport
	Output string
}

// Digest returns the hex SHA-256 of a rendered document.
func Digest(output string) string {
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])
}

// SaveRevision stores a rendered document for name.
// When the latest stored revision of name has the same digest, nothing is
// written and the existing revision is returned with saved=false.
func (h *HistoryDB) SaveRevision(ctx context.Context, name string, report *model.ThreatModelReport, format, output string) (*Revision, bool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, false, errors.New("revision name must not be empty")
	}

	digest := Digest(output)

	latest, err := h.latestMetadata(ctx, name)
	if err != nil && !errors.Is(err, ErrRevisionNotFound) {
		return nil, false, err
	}
	if latest != nil && latest.Digest == digest {
		return latest, false, nil
	}

	modelJSON, err := json.Marshal(report)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize threat model: %w", err)
	}

	summary := report.Summarize()
	riskSummary := make(map[string]int, len(model.Severities))
	for _, sev := range model.Severities {
		riskSummary[strings.ToLower(sev.String())] = summary.BySeverity[sev]
	}
	riskJSON, _ := json.Marshal(riskSummary) //nolint:errcheck,errchkjson // map[string]int always marshals

	rev := &Revision{
		RevisionID:  uuid.NewString(),
		Name:        name,
		Format:      format,
		Digest:      digest,
		RiskSummary: riskSummary,
		RiskScore:   summary.RiskScore,
		Report:      report,
		Output:      output,
	}

	query := `
	INSERT INTO revisions (revision_id, name, format, digest, model_json, output, risk_summary, risk_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := h.db.ExecContext(ctx, query,
		rev.RevisionID, rev.Name, rev.Format, rev.Digest,
		string(modelJSON), output, string(riskJSON), rev.RiskScore,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save revision: %w", err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return nil, false, fmt.Errorf("failed to read revision id: %w", err)
	}
	rev.CreatedAt = time.Now().UTC()

	return rev, true, nil
}

// ListReports returns the names of all stored threat models, sorted.
func (h *HistoryDB) ListReports(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT name FROM revisions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan report name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListRevisions returns revision metadata for name, newest first.
func (h *HistoryDB) ListRevisions(ctx context.Context, name string) ([]Revision, error) {
	query := `
	SELECT id, revision_id, name, format, created_at, digest, risk_summary, risk_score
	FROM revisions
	WHERE name = ?
	ORDER BY id DESC
	`
	rows, err := h.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		rev, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, *rev)
	}
	return revisions, rows.Err()
}

// LatestRevisions loads up to n full revisions of name, newest first.
func (h *HistoryDB) LatestRevisions(ctx context.Context, name string, n int) ([]*Revision, error) {
	query := `
	SELECT id, revision_id, name, format, created_at, digest, risk_summary, risk_score, model_json, output
	FROM revisions
	WHERE name = ?
	ORDER BY id DESC
	LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, name, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		rev, err := scanFull(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// GetRevision loads one full revision by database ID.
func (h *HistoryDB) GetRevision(ctx context.Context, id int64) (*Revision, error) {
	query := `
	SELECT id, revision_id, name, format, created_at, digest, risk_summary, risk_score, model_json, output
	FROM revisions
	WHERE id = ?
	`
	rev, err := scanFull(h.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrRevisionNotFound, id)
	}
	return rev, err
}

func (h *HistoryDB) latestMetadata(ctx context.Context, name string) (*Revision, error) {
	query := `
	SELECT id, revision_id, name, format, created_at, digest, risk_summary, risk_score
	FROM revisions
	WHERE name = ?
	ORDER BY id DESC
	LIMIT 1
	`
	rev, err := scanMetadata(h.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRevisionNotFound
	}
	return rev, err
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(s scanner) (*Revision, error) {
	var (
		rev       Revision
		createdAt string
		riskJSON  sql.NullString
	)
	err := s.Scan(&rev.ID, &rev.RevisionID, &rev.Name, &rev.Format, &createdAt, &rev.Digest, &riskJSON, &rev.RiskScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan revision: %w", err)
	}
	rev.CreatedAt = parseTimestamp(createdAt)
	rev.RiskSummary = parseRiskSummary(riskJSON)
	return &rev, nil
}

func scanFull(s scanner) (*Revision, error) {
	var (
		rev       Revision
		createdAt string
		riskJSON  sql.NullString
		modelJSON string
	)
	err := s.Scan(&rev.ID, &rev.RevisionID, &rev.Name, &rev.Format, &createdAt, &rev.Digest,
		&riskJSON, &rev.RiskScore, &modelJSON, &rev.Output)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan revision: %w", err)
	}
	rev.CreatedAt = parseTimestamp(createdAt)
	rev.RiskSummary = parseRiskSummary(riskJSON)

	var report model.ThreatModelReport
	if err := json.Unmarshal([]byte(modelJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse stored threat model: %w", err)
	}
	rev.Report = &report
	return &rev, nil
}

func parseRiskSummary(s sql.NullString) map[string]int {
	summary := make(map[string]int)
	if s.Valid && s.String != "" {
		if err := json.Unmarshal([]byte(s.String), &summary); err != nil {
			return make(map[string]int)
		}
	}
	return summary
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a SQLite timestamp, returning zero time when no
// known format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
