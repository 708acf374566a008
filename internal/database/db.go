package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/iliyamo/fly-starter/internal/config"
)

// Open returns a pooled handle for db. Like sql.Open it does not connect;
// use Ping to check the server is reachable.
func Open(db config.Database) (*sql.DB, error) {
	dsn, err := DSN(db)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(db.Engine, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", db.Engine)
	}

	// Pool settings
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

// DSN builds the driver connection string for db.
func DSN(db config.Database) (string, error) {
	if db.Engine != "mysql" {
		return "", errors.Errorf("no DSN builder for engine %q", db.Engine)
	}
	mc := mysql.NewConfig()
	mc.User = db.User
	mc.Passwd = db.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(db.Host, db.Port)
	mc.DBName = db.Name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent.
	// The driver's default collation is already utf8mb4.
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// Ping checks connectivity with a 5 second timeout.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
