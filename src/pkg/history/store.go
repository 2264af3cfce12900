// Package history 记录每次文档迁移的结果
// 数据保存在 sqlite 中，表结构由 golang-migrate 管理
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pass 一次迁移记录
type Pass struct {
	ID             string
	DocPath        string
	FromVersion    string
	ToVersion      string
	Steps          []string
	Migrated       bool
	CorruptRecords int
	CreatedAt      time.Time
}

// Store 迁移历史存储
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	logger *logrus.Entry
}

// Open 打开（必要时创建）位于 dbPath 的历史数据库，并升级表结构
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	s := &Store{
		db:     db,
		dbPath: dbPath,
		logger: logrus.WithFields(logrus.Fields{
			"component": "history",
			"db_path":   dbPath,
		}),
	}
	if err := s.migrateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	mig, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// migrateSchema 升级表结构
// 不调用 mig.Close()，它会关闭 Store 持有的数据库连接
func (s *Store) migrateSchema() error {
	mig, err := s.newMigrate()
	if err != nil {
		return err
	}
	from, dirty, _ := mig.Version()
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	to, _, _ := mig.Version()
	if from != to {
		s.logger.WithFields(logrus.Fields{
			"from_version": from,
			"to_version":   to,
			"was_dirty":    dirty,
		}).Info("history schema migrated")
	}
	return nil
}

// SchemaVersion 返回历史数据库的表结构版本
func (s *Store) SchemaVersion() (uint, bool, error) {
	mig, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close 关闭数据库
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Record 保存一条迁移记录，ID 与 CreatedAt 为空时自动填充
func (s *Store) Record(ctx context.Context, p *Pass) error {
	if p == nil {
		return fmt.Errorf("pass cannot be nil")
	}
	if p.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate pass id: %w", err)
		}
		p.ID = id.String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passes (id, doc_path, from_version, to_version, steps, migrated, corrupt_records, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DocPath, p.FromVersion, p.ToVersion, strings.Join(p.Steps, ","),
		boolToInt(p.Migrated), p.CorruptRecords, p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pass: %w", err)
	}
	return nil
}

// List 返回迁移记录，最新的在前
// docPath 为空时返回所有文档的记录，limit <= 0 表示不限制
func (s *Store) List(ctx context.Context, docPath string, limit int) ([]Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, doc_path, from_version, to_version, steps, migrated, corrupt_records, created_at FROM passes`
	var args []any
	if docPath != "" {
		query += ` WHERE doc_path = ?`
		args = append(args, docPath)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var (
			p        Pass
			steps    string
			migrated int
			created  int64
		)
		if err := rows.Scan(&p.ID, &p.DocPath, &p.FromVersion, &p.ToVersion, &steps, &migrated, &p.CorruptRecords, &created); err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		if steps != "" {
			p.Steps = strings.Split(steps, ",")
		}
		p.Migrated = migrated != 0
		p.CreatedAt = time.Unix(0, created)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
