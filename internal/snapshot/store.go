package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/guardmap/internal/model"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS compliance_snapshots (
	id TEXT PRIMARY KEY,
	org TEXT NOT NULL,
	framework TEXT NOT NULL,
	total_controls INTEGER NOT NULL,
	covered INTEGER NOT NULL,
	partial INTEGER NOT NULL,
	gaps INTEGER NOT NULL,
	coverage_percentage INTEGER NOT NULL,
	risk_level TEXT NOT NULL,
	policy_hash TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compliance_snapshots_org_fw ON compliance_snapshots(org, framework);
CREATE INDEX IF NOT EXISTS idx_compliance_snapshots_created_at ON compliance_snapshots(created_at);
`

// Store persists snapshots in SQLite.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts snap. A missing id or timestamp is filled in.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if snap.ID == "" {
		snap.ID = NewID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_snapshots (
			id, org, framework, total_controls, covered, partial, gaps,
			coverage_percentage, risk_level, policy_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.Org,
		snap.Framework,
		snap.TotalControls,
		snap.Covered,
		snap.Partial,
		snap.Gaps,
		snap.CoveragePercentage,
		string(snap.RiskLevel),
		snap.PolicyHash,
		snap.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	Org       string    // Filter by organization
	Framework string    // Filter by framework id
	Since     time.Time // Filter by created_at >= since
	Limit     int       // Maximum number of results (0 = no limit)
}

// List returns snapshots newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Snapshot, error) {
	query := `
		SELECT id, org, framework, total_controls, covered, partial, gaps,
		       coverage_percentage, risk_level, policy_hash, created_at
		FROM compliance_snapshots
		WHERE 1=1
	`
	args := []any{}

	if opts.Org != "" {
		query += " AND org = ?"
		args = append(args, opts.Org)
	}
	if opts.Framework != "" {
		query += " AND framework = ?"
		args = append(args, opts.Framework)
	}
	if !opts.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snaps := []Snapshot{}
	for rows.Next() {
		var (
			snap      Snapshot
			risk      string
			hash      sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&snap.ID, &snap.Org, &snap.Framework,
			&snap.TotalControls, &snap.Covered, &snap.Partial, &snap.Gaps,
			&snap.CoveragePercentage, &risk, &hash, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.RiskLevel = model.RiskLevel(risk)
		snap.PolicyHash = hash.String
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			snap.CreatedAt = t
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
