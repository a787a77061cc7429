// Package sqlite implements the near-earth-object store on a local SQLite
// database with embedded schema migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/brightvale-health/remitdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// defaultFilterLimit caps unbounded filter queries.
const defaultFilterLimit = 1000

// Ensure Store implements the interface.
var _ driven.NEOStore = (*Store)(nil)

// Store is the SQLite-backed near-earth-object store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.remitdesk/data/neo.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".remitdesk", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "neo.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		logger.Debug("applied migration %s", name)
	}
	return nil
}

// SaveAsteroids inserts asteroids, ignoring reference ids already stored.
func (s *Store) SaveAsteroids(ctx context.Context, asteroids []domain.Asteroid) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, a := range asteroids {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO asteroids (
				id, neo_reference_id, name, absolute_magnitude_h,
				estimated_diameter_min_km, estimated_diameter_max_km,
				is_potentially_hazardous_asteroid
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.NeoReferenceID, a.Name, a.AbsoluteMagnitudeH,
			a.EstimatedDiameterMinKM, a.EstimatedDiameterMaxKM,
			a.IsPotentiallyHazardous,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting asteroid %s: %w", a.NeoReferenceID, err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing asteroids: %w", err)
	}
	return inserted, nil
}

// SaveApproaches inserts close-approach records.
func (s *Store) SaveApproaches(ctx context.Context, approaches []domain.CloseApproach) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range approaches {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO close_approach (
				neo_reference_id, close_approach_date, relative_velocity_kmph,
				astronomical, miss_distance_km, miss_distance_lunar, orbiting_body
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.NeoReferenceID, c.CloseApproachDate, c.RelativeVelocityKMPH,
			c.Astronomical, c.MissDistanceKM, c.MissDistanceLunar, c.OrbitingBody,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting approach for %s: %w", c.NeoReferenceID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing approaches: %w", err)
	}
	return len(approaches), nil
}

// Counts returns the stored asteroid and close-approach row counts.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	var asteroids, approaches int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM asteroids").Scan(&asteroids); err != nil {
		return 0, 0, fmt.Errorf("counting asteroids: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM close_approach").Scan(&approaches); err != nil {
		return 0, 0, fmt.Errorf("counting approaches: %w", err)
	}
	return asteroids, approaches, nil
}

// cannedQueries maps query names to their SQL.
var cannedQueries = map[string]string{
	"approach-counts": `
		SELECT a.name, COUNT(c.id) AS approach_count
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		GROUP BY a.id, a.name
		ORDER BY approach_count DESC
		LIMIT 20`,
	"fastest": `
		SELECT a.name, MAX(c.relative_velocity_kmph) AS max_velocity
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		GROUP BY a.id, a.name
		ORDER BY max_velocity DESC
		LIMIT 10`,
	"hazardous-frequent": `
		SELECT a.name, COUNT(c.id) AS approach_count
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		WHERE a.is_potentially_hazardous_asteroid = 1
		GROUP BY a.id, a.name
		HAVING COUNT(c.id) > 3
		ORDER BY approach_count DESC`,
	"monthly-approaches": `
		SELECT strftime('%Y-%m', c.close_approach_date) AS month, COUNT(*) AS approach_count
		FROM close_approach c
		GROUP BY month
		ORDER BY month`,
	"largest": `
		SELECT name, estimated_diameter_max_km
		FROM asteroids
		ORDER BY estimated_diameter_max_km DESC
		LIMIT 20`,
	"closest": `
		SELECT a.name, c.close_approach_date, MIN(c.miss_distance_km) AS closest_approach_km
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		GROUP BY a.id, a.name
		ORDER BY closest_approach_km
		LIMIT 20`,
	"closer-than-moon": `
		SELECT a.name, c.close_approach_date, c.miss_distance_lunar
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		WHERE c.miss_distance_lunar < 1
		ORDER BY c.miss_distance_lunar
		LIMIT 30`,
	"brightest": `
		SELECT name, absolute_magnitude_h
		FROM asteroids
		ORDER BY absolute_magnitude_h
		LIMIT 20`,
	"hazardous-share": `
		SELECT
			CASE is_potentially_hazardous_asteroid
				WHEN 1 THEN 'Hazardous'
				ELSE 'Non-Hazardous'
			END AS status,
			COUNT(*) AS asteroid_count,
			ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM asteroids), 2) AS percentage
		FROM asteroids
		GROUP BY is_potentially_hazardous_asteroid`,
	"largest-hazardous": `
		SELECT name, estimated_diameter_max_km
		FROM asteroids
		WHERE is_potentially_hazardous_asteroid = 1
		ORDER BY estimated_diameter_max_km DESC
		LIMIT 20`,
	"recent": `
		SELECT a.name, c.close_approach_date, c.miss_distance_km
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		ORDER BY c.close_approach_date DESC
		LIMIT 30`,
	"size-velocity": `
		SELECT a.name, a.estimated_diameter_max_km, AVG(c.relative_velocity_kmph) AS avg_velocity
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		GROUP BY a.id, a.name
		ORDER BY a.estimated_diameter_max_km DESC
		LIMIT 30`,
}

// QueryNames lists the available canned query names, sorted.
func (s *Store) QueryNames() []string {
	names := make([]string, 0, len(cannedQueries))
	for name := range cannedQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query runs a canned query by name.
func (s *Store) Query(ctx context.Context, name string) (*domain.ResultSet, error) {
	q, ok := cannedQueries[name]
	if !ok {
		return nil, fmt.Errorf("query %q: %w", name, domain.ErrNotFound)
	}
	return s.runQuery(ctx, q, nil)
}

// Filter runs a close-approach query constrained by the filter.
func (s *Store) Filter(ctx context.Context, f domain.NEOFilter) (*domain.ResultSet, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT a.name, c.close_approach_date, c.relative_velocity_kmph,
		       c.astronomical, c.miss_distance_lunar,
		       a.estimated_diameter_max_km, a.is_potentially_hazardous_asteroid
		FROM asteroids a
		JOIN close_approach c ON a.neo_reference_id = c.neo_reference_id
		WHERE 1=1`)
	var args []any

	if f.DateFrom != "" && f.DateTo != "" {
		b.WriteString(" AND c.close_approach_date BETWEEN ? AND ?")
		args = append(args, f.DateFrom, f.DateTo)
	}
	if f.MaxAstronomical != nil {
		b.WriteString(" AND c.astronomical <= ?")
		args = append(args, *f.MaxAstronomical)
	}
	if f.MaxLunar != nil {
		b.WriteString(" AND c.miss_distance_lunar <= ?")
		args = append(args, *f.MaxLunar)
	}
	if f.MinVelocityKMPH != nil {
		b.WriteString(" AND c.relative_velocity_kmph >= ?")
		args = append(args, *f.MinVelocityKMPH)
	}
	if f.MaxVelocityKMPH != nil {
		b.WriteString(" AND c.relative_velocity_kmph <= ?")
		args = append(args, *f.MaxVelocityKMPH)
	}
	if f.MinDiameterKM != nil {
		b.WriteString(" AND a.estimated_diameter_max_km >= ?")
		args = append(args, *f.MinDiameterKM)
	}
	if f.MaxDiameterKM != nil {
		b.WriteString(" AND a.estimated_diameter_max_km <= ?")
		args = append(args, *f.MaxDiameterKM)
	}
	if f.HazardousOnly {
		b.WriteString(" AND a.is_potentially_hazardous_asteroid = 1")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	b.WriteString(" ORDER BY c.close_approach_date LIMIT ?")
	args = append(args, limit)

	return s.runQuery(ctx, b.String(), args)
}

// Purge deletes all stored records.
func (s *Store) Purge(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM close_approach"); err != nil {
		return fmt.Errorf("purging approaches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM asteroids"); err != nil {
		return fmt.Errorf("purging asteroids: %w", err)
	}
	return tx.Commit()
}

// runQuery executes SQL and renders every column as text.
func (s *Store) runQuery(ctx context.Context, query string, args []any) (*domain.ResultSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	rs := &domain.ResultSet{Columns: cols}
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			if v.Valid {
				row[i] = v.String
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return rs, nil
}
