//
// Tencent is pleased to support the open source community by making trpc-agent-bench available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-bench is licensed under the Apache License Version 2.0.
//
//

// Package mysql provides a MySQL-backed storage.Recorder.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Register the MySQL driver.
	_ "github.com/go-sql-driver/mysql"

	"trpc.group/trpc-go/trpc-agent-bench/storage"
)

// defaultTable is the record table name when no prefix is configured.
const defaultTable = "bench_records"

// defaultInitTimeout bounds schema initialization.
const defaultInitTimeout = 10 * time.Second

// schemaTemplate is the record table schema.
const schemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  record_key VARCHAR(512) NOT NULL,
  payload JSON NOT NULL,
  created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  PRIMARY KEY (id),
  UNIQUE KEY uk_record_key (record_key)
)`

// options contains configuration for the MySQL recorder.
type options struct {
	dsn         string
	db          *sql.DB
	tablePrefix string
	skipDBInit  bool
	initTimeout time.Duration
}

// Option configures the MySQL recorder.
type Option func(*options)

// WithDSN sets the MySQL DSN.
func WithDSN(dsn string) Option {
	return func(o *options) {
		o.dsn = dsn
	}
}

// WithDB injects an existing database handle. Takes precedence over WithDSN.
func WithDB(db *sql.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithTablePrefix sets a prefix for the record table name.
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.tablePrefix = prefix
	}
}

// WithSkipDBInit skips schema initialization at startup.
func WithSkipDBInit(skip bool) Option {
	return func(o *options) {
		o.skipDBInit = skip
	}
}

// recorder implements storage.Recorder over MySQL.
type recorder struct {
	db    *sql.DB
	table string
}

var _ storage.Recorder = (*recorder)(nil)

// New creates a MySQL-backed recorder.
func New(opt ...Option) (storage.Recorder, error) {
	opts := &options{initTimeout: defaultInitTimeout}
	for _, o := range opt {
		o(opts)
	}
	db := opts.db
	if db == nil {
		if opts.dsn == "" {
			return nil, errors.New("mysql dsn is empty")
		}
		var err error
		db, err = sql.Open("mysql", opts.dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	}
	r := &recorder{db: db, table: opts.tablePrefix + defaultTable}
	if !opts.skipDBInit {
		ctx, cancel := context.WithTimeout(context.Background(), opts.initTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, fmt.Sprintf(schemaTemplate, r.table)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init record table: %w", err)
		}
	}
	return r, nil
}

// Put upserts the record under the key.
func (r *recorder) Put(ctx context.Context, key storage.Key, record any) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("validate key: %w", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (record_key, payload) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = CURRENT_TIMESTAMP(6)`,
		r.table,
	)
	if _, err := r.db.ExecContext(ctx, query, key.String(), payload); err != nil {
		return fmt.Errorf("store record %s: %w", key, err)
	}
	return nil
}

// Get loads the record stored under the key into out.
func (r *recorder) Get(ctx context.Context, key storage.Key, out any) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, fmt.Errorf("validate key: %w", err)
	}
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE record_key = ?`, r.table)
	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, key.String()).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load record %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return true, nil
}

// Close closes the underlying database handle.
func (r *recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
