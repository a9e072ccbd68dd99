package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirty は前回のマイグレーションが途中で失敗し、手動での修復が必要な状態を表す。
var ErrDirty = errors.New("database is in dirty state")

// MigrationStatus はスキーマの適用状況。
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Version=0かつApplied=falseは未適用を意味する
	Applied bool
}

// Migrator は埋め込みSQLを使ってusers/tasksスキーマを管理する。
type Migrator struct {
	m *migrate.Migrate
}

// migrationSource は埋め込みSQLのsource.Driverを返す。
func migrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return src, nil
}

// NewMigrator はdatabaseURLのPostgreSQLに対するMigratorを生成する。
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up は未適用のマイグレーションをすべて適用し、適用後の状態を返す。
// すでに最新であればエラーにしない。
func (mg *Migrator) Up() (MigrationStatus, error) {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return mg.checkedStatus()
}

// Down はすべてのマイグレーションを巻き戻す。
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// Status は現在のスキーマバージョンを返す。
func (mg *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return MigrationStatus{}, nil
	case err != nil:
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

func (mg *Migrator) checkedStatus() (MigrationStatus, error) {
	st, err := mg.Status()
	if err != nil {
		return st, err
	}
	if st.Dirty {
		return st, fmt.Errorf("%w at version %d", ErrDirty, st.Version)
	}
	return st, nil
}

// Close はソースとデータベースの両方の接続を閉じる。
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations はMigratorの生成からUp、Closeまでをまとめて行い、適用後のバージョンを返す。
func RunMigrations(databaseURL string) (uint, error) {
	mg, err := NewMigrator(databaseURL)
	if err != nil {
		return 0, err
	}
	defer mg.Close()

	st, err := mg.Up()
	if err != nil {
		return st.Version, err
	}
	return st.Version, nil
}
