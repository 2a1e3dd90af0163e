// Package database opens the MySQL pool and applies the schema.
package database

import (
    "context"
    "database/sql"
    _ "embed"
    "fmt"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schemaSQL string

// DSN builds the driver configuration.  parseTime maps DATE and DATETIME
// to time.Time and loc=UTC keeps stored dates at UTC midnight.
func DSN(user, pass, host, port, name string) string {
    cfg := mysql.NewConfig()
    cfg.User = user
    cfg.Passwd = pass
    cfg.Net = "tcp"
    cfg.Addr = host + ":" + port
    cfg.DBName = name
    cfg.ParseTime = true
    cfg.Loc = time.UTC
    cfg.Params = map[string]string{"charset": "utf8mb4"}
    return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
    if err != nil {
        return nil, err
    }

    // Pool settings
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return db, nil
}

// Statements returns the schema split into single statements.
func Statements() []string {
    var out []string
    for _, stmt := range strings.Split(schemaSQL, "-- split") {
        stmt = strings.TrimSpace(stmt)
        stmt = strings.TrimSuffix(stmt, ";")
        if stmt != "" {
            out = append(out, stmt)
        }
    }
    return out
}

// Migrate applies the embedded schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
    for i, stmt := range Statements() {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("schema statement %d: %w", i+1, err)
        }
    }
    return nil
}
