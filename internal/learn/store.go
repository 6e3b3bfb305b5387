package learn

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Store persists a flat name -> weight map. Learners treat persistence as
// best-effort: a failed Load falls back to defaults, a failed Save is
// reported but does not interrupt play.
type Store interface {
	Load() (map[string]float64, error)
	Save(map[string]float64) error
}

// FileStore keeps weights in a plain text file, one "name=value" per line.
// Lines starting with '#' and unparsable lines are skipped.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load() (map[string]float64, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}

func (s *FileStore) Save(w map[string]float64) error {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, strconv.FormatFloat(w[k], 'g', -1, 64))
	}
	return os.WriteFile(s.Path, []byte(sb.String()), 0644)
}

// SQLiteDB backs any number of scoped weight stores with a single database
// file. Useful when several simulator processes share learned state.
type SQLiteDB struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open weights db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS weights (
		scope TEXT NOT NULL,
		name  TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (scope, name)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init weights db: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error { return s.db.Close() }

// Store returns a Store view over one scope, e.g. "pass" or "position".
func (s *SQLiteDB) Store(scope string) Store {
	return &sqliteStore{db: s.db, scope: scope}
}

type sqliteStore struct {
	db    *sql.DB
	scope string
}

func (s *sqliteStore) Load() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT name, value FROM weights WHERE scope = ?`, s.scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]float64{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func (s *sqliteStore) Save(w map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for k, v := range w {
		if _, err := tx.Exec(
			`INSERT INTO weights (scope, name, value) VALUES (?, ?, ?)
			 ON CONFLICT(scope, name) DO UPDATE SET value = excluded.value`,
			s.scope, k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
