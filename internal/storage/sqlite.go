package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteBackend keeps topics and items in two tables. Unlike the JSON file
// it also records topic positions, so order survives a restart.
type sqliteBackend struct{}

func (sqliteBackend) name() string { return "sqlite" }

// sqliteMagic is the header at the start of every SQLite 3 database file.
const sqliteMagic = "SQLite format 3\x00"

func openDB(path, mode string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path, mode))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// checkFormat reports whether path holds a SQLite database.
func checkFormat(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ioError("load", path, err)
	}
	defer f.Close()
	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil || string(header) != sqliteMagic {
		return encodingError("load", path, errors.New("not a SQLite database"))
	}
	return nil
}

// checkTables fails unless both tables written by save are present.
func checkTables(db *sql.DB, path string) error {
	var n int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('topics', 'items');`).Scan(&n)
	if err != nil {
		return encodingError("load", path, err)
	}
	if n != 2 {
		return encodingError("load", path, errors.New("missing topics or items table"))
	}
	return nil
}

func ensureSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS topics (
	name TEXT PRIMARY KEY,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
	topic TEXT NOT NULL REFERENCES topics(name) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	status INTEGER NOT NULL DEFAULT 0,
	text TEXT NOT NULL,
	PRIMARY KEY (topic, position)
);`
	_, err := db.Exec(ddl)
	return err
}

func (sqliteBackend) load(path string) (map[string][]Item, []string, error) {
	// The driver opens lazily; check up front so a missing or foreign file
	// reports like the JSON backend does.
	if err := checkFormat(path); err != nil {
		return nil, nil, err
	}
	db, err := openDB(path, "ro")
	if err != nil {
		return nil, nil, ioError("load", path, err)
	}
	defer db.Close()
	if err := checkTables(db, path); err != nil {
		return nil, nil, err
	}

	topics := map[string][]Item{}
	var order []string

	rows, err := db.Query(`SELECT name FROM topics ORDER BY position;`)
	if err != nil {
		return nil, nil, ioError("load", path, err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, nil, ioError("load", path, err)
		}
		topics[name] = []Item{}
		order = append(order, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, ioError("load", path, err)
	}
	rows.Close()

	rows, err = db.Query(`SELECT topic, status, text FROM items ORDER BY topic, position;`)
	if err != nil {
		return nil, nil, ioError("load", path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			topic, text string
			status      int
		)
		if err := rows.Scan(&topic, &status, &text); err != nil {
			return nil, nil, ioError("load", path, err)
		}
		items, ok := topics[topic]
		if !ok {
			return nil, nil, encodingError("load", path, fmt.Errorf("item for unknown topic %q", topic))
		}
		var st Status
		switch status {
		case 0:
			st = Todo
		case 1:
			st = Done
		default:
			return nil, nil, encodingError("load", path, fmt.Errorf("%w: unknown status %d in topic %q", ErrEncoding, status, topic))
		}
		topics[topic] = append(items, Item{Status: st, Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, ioError("load", path, err)
	}
	return topics, order, nil
}

// save replaces the whole contents of the database in one transaction.
func (sqliteBackend) save(path string, topics map[string][]Item, order []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return ioError("save", path, err)
	}
	db, err := openDB(path, "rwc")
	if err != nil {
		return ioError("save", path, err)
	}
	defer db.Close()
	if err := ensureSchema(db); err != nil {
		return ioError("save", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return ioError("save", path, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM items;`); err != nil {
		return ioError("save", path, err)
	}
	if _, err := tx.Exec(`DELETE FROM topics;`); err != nil {
		return ioError("save", path, err)
	}
	for pos, name := range order {
		if _, err := tx.Exec(`INSERT INTO topics (name, position) VALUES (?, ?);`, name, pos); err != nil {
			return ioError("save", path, err)
		}
		for i, it := range topics[name] {
			status := 0
			if it.Status == Done {
				status = 1
			}
			if _, err := tx.Exec(`INSERT INTO items (topic, position, status, text) VALUES (?, ?, ?, ?);`, name, i, status, it.Text); err != nil {
				return ioError("save", path, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return ioError("save", path, err)
	}
	return nil
}

func sqliteDSN(path, mode string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", mode)
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}
