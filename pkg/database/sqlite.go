package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteDB wraps *sql.DB for the embedded (local) storage mode
// ⭐ SSOT: SQLite 연결은 이 함수에서만 생성
type SQLiteDB struct {
	DB *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path.
// ":memory:" gives a private in-memory database (tests).
func OpenSQLite(path string) (*SQLiteDB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite는 단일 writer. in-memory DB는 커넥션마다 별도 DB가 되므로 1로 고정
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return &SQLiteDB{DB: db}, nil
}

// Close closes the underlying database
func (s *SQLiteDB) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// Ping checks if the database is accessible
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
