package migrations

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config selects the store, a local sqlite file by default or a remote
// libsql database when Url is set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Open() (*sql.DB, error) {
	if c.Url != "" {
		return OpenRemoteDB(c.Url, c.AuthToken)
	}
	if c.File == "" {
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	return OpenDB(c.File)
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens a local sqlite database, ":memory:" is allowed.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	// per-connection, the single connection above keeps it in effect
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

// OpenRemoteDB opens a libsql (turso) database over the network.
func OpenRemoteDB(dbUrl, authToken string) (*sql.DB, error) {
	if !strings.HasPrefix(dbUrl, "libsql://") &&
		!strings.HasPrefix(dbUrl, "https://") &&
		!strings.HasPrefix(dbUrl, "http://") {
		return nil, wrapOpenDB(fmt.Errorf("unsupported database url '%s'", dbUrl))
	}

	values := url.Values{}
	if authToken != "" {
		values.Add("authToken", authToken)
	}
	dsn := dbUrl
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

func wrapOpenAndMigrate(err error) error {
	return fmt.Errorf("open and migrate db: %w", err)
}

// Migrate applies the schema, every statement in it must be idempotent
// (create ... if not exists).
func Migrate(db *sql.DB, schema string) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func OpenAndMigrateDB(schema string, config Config) (*sql.DB, error) {
	db, err := config.Open()
	if err != nil {
		return nil, wrapOpenAndMigrate(err)
	}
	err = Migrate(db, schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenAndMigrate(err)
	}
	return db, nil
}
