// Package database opens the schedule database and wraps the sqlx named query
// boilerplate the data packages share.
package database

import (
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/stdlib"
	"github.com/jmoiron/sqlx"
)

// Config holds the connection properties for the schedule database.
type Config struct {
	User       string
	Password   string
	Host       string
	Name       string
	DisableTLS bool
}

// Open connects to the configured postgres database over pgx. Sessions run in
// UTC so date comparisons match the stored service dates.
func Open(cfg Config) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}
	db, err := sqlx.Connect("pgx", u.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database %s on %s: %w", cfg.Name, cfg.Host, err)
	}
	return db, nil
}

// NamedQueryRows executes a named query built from a map of parameters,
// expanding slice parameters for "in (:param)" clauses and rebinding
// placeholders for the active driver.
func NamedQueryRows(db *sqlx.DB,
	statementString string,
	sqlArgMap map[string]interface{}) (*sqlx.Rows, error) {

	query, args, err := sqlx.Named(statementString, sqlArgMap)
	if err != nil {
		return nil, err
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	return db.Queryx(db.Rebind(query), args...)
}
