package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	companionsdk "github.com/attuneai/companion-sdk-go"
)

// PostgresKVStore implements companionsdk.KVStore using PostgreSQL.
//
// It uses two tables (auto-created if AutoMigrate is true):
//   - {prefix}_kv:   (namespace, key, value) for KV operations
//   - {prefix}_list: (namespace, key, id, value) for ordered lists
type PostgresKVStore struct {
	db     *sql.DB
	prefix string
}

// PostgresStoreConfig configures the Postgres store.
type PostgresStoreConfig struct {
	Prefix      string // table prefix, default "companion_store"
	AutoMigrate bool   // create tables if not exist, default true
}

// NewPostgresKVStore creates a KVStore backed by PostgreSQL.
// The sql.DB must be already opened with the pq driver.
func NewPostgresKVStore(db *sql.DB, config ...PostgresStoreConfig) (*PostgresKVStore, error) {
	cfg := PostgresStoreConfig{Prefix: "companion_store", AutoMigrate: true}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "companion_store"
	}

	s := &PostgresKVStore{db: db, prefix: cfg.Prefix}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			return nil, fmt.Errorf("auto-migrate failed: %w", err)
		}
	}
	return s, nil
}

func (s *PostgresKVStore) kvTable() string   { return s.prefix + "_kv" }
func (s *PostgresKVStore) listTable() string { return s.prefix + "_list" }

func (s *PostgresKVStore) migrate() error {
	kvDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		namespace TEXT NOT NULL,
		k         TEXT NOT NULL,
		v         TEXT NOT NULL,
		PRIMARY KEY (namespace, k)
	)`, s.kvTable())

	listDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id        BIGSERIAL PRIMARY KEY,
		namespace TEXT NOT NULL,
		k         TEXT NOT NULL,
		v         TEXT NOT NULL
	)`, s.listTable())

	listIdxDDL := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_ns_key ON %s (namespace, k)`,
		s.listTable(), s.listTable())

	if _, err := s.db.Exec(kvDDL); err != nil {
		return err
	}
	if _, err := s.db.Exec(listDDL); err != nil {
		return err
	}
	_, err := s.db.Exec(listIdxDDL)
	return err
}

func (s *PostgresKVStore) Get(namespace, key string) (string, error) {
	var val string
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT v FROM %s WHERE namespace=$1 AND k=$2", s.kvTable()),
		namespace, key,
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

func (s *PostgresKVStore) Set(namespace, key, value string) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (namespace, k, v) VALUES ($1, $2, $3) ON CONFLICT (namespace, k) DO UPDATE SET v=EXCLUDED.v",
		s.kvTable(),
	)
	_, err := s.db.Exec(q, namespace, key, value)
	return err
}

func (s *PostgresKVStore) Delete(namespace, key string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE namespace=$1 AND k=$2", s.kvTable()),
		namespace, key,
	)
	return err
}

func (s *PostgresKVStore) Append(namespace, key, value string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("INSERT INTO %s (namespace, k, v) VALUES ($1, $2, $3)", s.listTable()),
		namespace, key, value,
	)
	return err
}

func (s *PostgresKVStore) GetList(namespace, key string, limit, offset int) ([]string, error) {
	q := fmt.Sprintf("SELECT v FROM %s WHERE namespace=$1 AND k=$2 ORDER BY id ASC", s.listTable())
	args := []interface{}{namespace, key}

	if limit > 0 {
		q += " LIMIT $3 OFFSET $4"
		args = append(args, limit, offset)
	} else if offset > 0 {
		q += " OFFSET $3"
		args = append(args, offset)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *PostgresKVStore) TrimList(namespace, key string, maxSize int) error {
	var count int
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE namespace=$1 AND k=$2", s.listTable()),
		namespace, key,
	).Scan(&count)
	if err != nil || count <= maxSize {
		return err
	}

	toDelete := count - maxSize
	_, err = s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE namespace=$1 AND k=$2 ORDER BY id ASC LIMIT $3)",
			s.listTable(), s.listTable()),
		namespace, key, toDelete,
	)
	return err
}

func (s *PostgresKVStore) ClearList(namespace, key string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE namespace=$1 AND k=$2", s.listTable()),
		namespace, key,
	)
	return err
}

func (s *PostgresKVStore) ListLength(namespace, key string) (int, error) {
	var count int
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE namespace=$1 AND k=$2", s.listTable()),
		namespace, key,
	).Scan(&count)
	return count, err
}

// Close releases the underlying database handle.
func (s *PostgresKVStore) Close() error {
	return s.db.Close()
}

// DeleteNamespace removes all data for a namespace (KV + lists).
// Useful for right-to-forget compliance.
func (s *PostgresKVStore) DeleteNamespace(namespace string) error {
	if _, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE namespace=$1", s.kvTable()), namespace,
	); err != nil {
		return err
	}
	_, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE namespace=$1", s.listTable()), namespace,
	)
	return err
}

// Compile-time interface check.
var _ companionsdk.KVStore = (*PostgresKVStore)(nil)
