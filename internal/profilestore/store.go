// Package profilestore persists compiled-function artifacts (and the
// profiling counts that earned them a tier-up) across process runs, so a
// script that was hot last time it ran doesn't have to warm back up to the
// same tier from scratch. It sits behind internal/jit.Compiler: a cache hit
// here skips a recompile entirely, a miss falls through to the normal
// tiered-compile path and the result is written back.
package profilestore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	pkgerrors "github.com/pkg/errors"

	// Server drivers wired for a shared multi-process profile-store
	// deployment; the sqlite driver is chosen by one of the build-tagged
	// files in this package (sqlite_default.go / sqlite_cgo.go).
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"lavascript/internal/config"
	"lavascript/internal/jit"
)

// driverName maps the user-facing profilestore.driver config value to the
// database/sql driver name actually registered for it.
func driverName(configured string) string {
	switch strings.ToLower(configured) {
	case "", "sqlite", "sqlite3":
		return sqliteDriverName
	case "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlserver", "mssql":
		return "sqlserver"
	default:
		return configured
	}
}

// placeholder returns the driver's positional-parameter syntax: lib/pq
// wants $1, $2..., everything else here accepts ?.
func placeholder(driver string, n int) string {
	if driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Entry is one cached compile result keyed by CacheKey.
type Entry struct {
	Key        string
	Tier       jit.CompilationTier
	Artifact   []byte
	Signature  []byte
	CompiledOn civil.Date
}

// Store is a database/sql-backed compile-result cache. Every entry is
// signed with a SigningKey at write time and re-verified at read time, so a
// row tampered with outside the running process is rejected rather than
// fed back into the VM as a trusted native artifact.
type Store struct {
	db     *sql.DB
	driver string
	key    *SigningKey
}

// Open connects to the backing store named by cfg.ProfileStoreDriver /
// cfg.ProfileStoreDSN and ensures its schema exists. key signs entries this
// Store writes and verifies entries it reads; pass the same key across
// every process sharing one store.
func Open(cfg *config.Config, key *SigningKey) (*Store, error) {
	driver := driverName(cfg.ProfileStoreDriver)
	db, err := sql.Open(driver, cfg.ProfileStoreDSN)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "profilestore: open %s store", driver)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, pkgerrors.Wrapf(err, "profilestore: ping %s store", driver)
	}

	s := &Store{db: db, driver: driver, key: key}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS profile_cache (
		cache_key   TEXT PRIMARY KEY,
		tier        INTEGER NOT NULL,
		artifact    BLOB NOT NULL,
		signature   BLOB NOT NULL,
		compiled_on TEXT NOT NULL
	)`)
	if err != nil {
		return pkgerrors.Wrap(err, "profilestore: create schema")
	}
	return nil
}

// payload is the byte string a Store signs and verifies: the cache key and
// tier bound to the artifact bytes, so a swapped artifact under a
// legitimate key's signature still fails verification.
func payload(key string, tier jit.CompilationTier, artifact []byte) []byte {
	buf := make([]byte, 0, len(key)+1+len(artifact))
	buf = append(buf, key...)
	buf = append(buf, byte(tier))
	buf = append(buf, artifact...)
	return buf
}

// Put signs artifact under cache key key (see CacheKey) and upserts it.
func (s *Store) Put(fn *jit.Function, tier jit.CompilationTier, artifact []byte) error {
	key, err := CacheKey(fn, tier)
	if err != nil {
		return err
	}
	sig := s.key.Sign(payload(key, tier, artifact))
	today := civil.DateOf(time.Now())

	switch s.driver {
	case "postgres":
		_, err = s.db.Exec(`INSERT INTO profile_cache (cache_key, tier, artifact, signature, compiled_on)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cache_key) DO UPDATE SET tier = $2, artifact = $3, signature = $4, compiled_on = $5`,
			key, int(tier), artifact, sig, today.String())
	default:
		_, err = s.db.Exec(`INSERT OR REPLACE INTO profile_cache (cache_key, tier, artifact, signature, compiled_on)
			VALUES (?, ?, ?, ?, ?)`,
			key, int(tier), artifact, sig, today.String())
	}
	if err != nil {
		return pkgerrors.Wrap(err, "profilestore: put")
	}
	return nil
}

// Get looks up fn's cached artifact at tier, verifying its signature before
// returning it. A missing row, a corrupted row, or a signature that fails
// verification are all reported as (nil, false, nil) — a plain cache miss,
// not an error the caller needs to treat specially — errors are returned
// only for store I/O failures.
func (s *Store) Get(fn *jit.Function, tier jit.CompilationTier) (*Entry, bool, error) {
	key, err := CacheKey(fn, tier)
	if err != nil {
		return nil, false, err
	}

	row := s.db.QueryRow(fmt.Sprintf(
		"SELECT tier, artifact, signature, compiled_on FROM profile_cache WHERE cache_key = %s",
		placeholder(s.driver, 1)), key)

	var storedTier int
	var artifact, sig []byte
	var compiledOn string
	if err := row.Scan(&storedTier, &artifact, &sig, &compiledOn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(err, "profilestore: get")
	}

	if !Verify(s.key.PublicKey(), payload(key, jit.CompilationTier(storedTier), artifact), sig) {
		return nil, false, nil
	}

	date, err := civil.ParseDate(compiledOn)
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "profilestore: parse compiled_on")
	}

	return &Entry{
		Key:        key,
		Tier:       jit.CompilationTier(storedTier),
		Artifact:   artifact,
		Signature:  sig,
		CompiledOn: date,
	}, true, nil
}

// Close releases the underlying database/sql connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
