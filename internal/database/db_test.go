package database

import (
    "context"
    "errors"
    "regexp"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
    dsn := DSN("app", "pw", "db", "3306", "hotel")
    require.True(t, strings.HasPrefix(dsn, "app:pw@tcp(db:3306)/hotel?"), dsn)
    require.Contains(t, dsn, "parseTime=true")
    require.Contains(t, dsn, "charset=utf8mb4")
}

func TestStatements(t *testing.T) {
    stmts := Statements()
    require.Len(t, stmts, 8)
    for _, s := range stmts {
        require.NotContains(t, s, "-- split")
    }
    require.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS users"))
    require.True(t, strings.HasSuffix(stmts[5], "END"))
}

func TestMigrate(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    for _, s := range Statements() {
        mock.ExpectExec(regexp.QuoteMeta(s)).WillReturnResult(sqlmock.NewResult(0, 0))
    }
    require.NoError(t, Migrate(context.Background(), db))
    require.NoError(t, mock.ExpectationsWereMet())

    mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))
    err = Migrate(context.Background(), db)
    require.ErrorContains(t, err, "schema statement 1")
}
