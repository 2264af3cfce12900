package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	x2bsentry "github.com/xplane2blender/x2b-updater/src/pkg/sentry"
)

// BatchMigrator 批量迁移器，用于迁移多个文档文件
type BatchMigrator struct {
	configs []*MigrationConfig
	logger  *logrus.Entry
	mu      sync.Mutex
}

// BatchMigrationResult 批量迁移结果
type BatchMigrationResult struct {
	// Results 按文档路径索引，失败的文档可能没有结果
	Results map[string]*MigrationResult
	Success bool
	Errors  []error
}

// Err 把全部错误合并为一个
func (r *BatchMigrationResult) Err() error {
	return multierr.Combine(r.Errors...)
}

// NewBatchMigrator 创建批量迁移器
func NewBatchMigrator() *BatchMigrator {
	return &BatchMigrator{
		configs: make([]*MigrationConfig, 0),
		logger:  logrus.WithField("component", "batch_migrator"),
	}
}

// Add 添加迁移配置
func (b *BatchMigrator) Add(config *MigrationConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs = append(b.configs, config)
}

// AddMultiple 添加多个迁移配置
func (b *BatchMigrator) AddMultiple(configs []*MigrationConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs = append(b.configs, configs...)
}

// Len 返回待迁移的文档数
func (b *BatchMigrator) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.configs)
}

// Run 执行所有迁移
// parallel 为同时处理的文档数，<= 1 时顺序执行。同一个文档始终只由一个协程处理。
// 单个文档失败不影响其他文档。
func (b *BatchMigrator) Run(ctx context.Context, parallel int) *BatchMigrationResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := &BatchMigrationResult{
		Results: make(map[string]*MigrationResult),
		Success: true,
	}
	if len(b.configs) == 0 {
		return result
	}

	if parallel <= 1 {
		for _, config := range b.configs {
			if ctx.Err() != nil {
				result.add(docPathOf(config), nil, ctx.Err())
				continue
			}
			res, err := b.migrateOne(ctx, config)
			result.add(docPathOf(config), res, err)
		}
		return result
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, parallel)
	)
	for _, config := range b.configs {
		config := config // per-iteration copy; go directive is 1.21 (pre-1.22 loop semantics)
		wg.Add(1)
		x2bsentry.Go(func() {
			defer wg.Done()

			var (
				res *MigrationResult
				err error
			)
			select {
			case sem <- struct{}{}:
				res, err = b.migrateOne(ctx, config)
				<-sem
			case <-ctx.Done():
				err = ctx.Err()
			}

			mu.Lock()
			result.add(docPathOf(config), res, err)
			mu.Unlock()
		})
	}

	wg.Wait()
	return result
}

// migrateOne 迁移单个文档，panic 转换为错误
func (b *BatchMigrator) migrateOne(ctx context.Context, config *MigrationConfig) (res *MigrationResult, err error) {
	defer x2bsentry.RecoverTo(&err)

	migrator, err := NewMigrator(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	recovered, rerr := migrator.CheckAndRecover()
	if errors.Is(rerr, ErrLocked) {
		return nil, rerr
	}
	if rerr != nil {
		b.logger.WithError(rerr).WithField("doc_path", config.DocPath).Warn("recovery check failed")
	}
	if recovered {
		b.logger.WithField("doc_path", config.DocPath).Info("recovered from incomplete migration")
	}

	return migrator.Run(ctx)
}

// Clear 清空迁移配置
func (b *BatchMigrator) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs = make([]*MigrationConfig, 0)
}

func (r *BatchMigrationResult) add(path string, res *MigrationResult, err error) {
	if res != nil {
		r.Results[path] = res
	}
	if err != nil {
		r.Success = false
		r.Errors = append(r.Errors, fmt.Errorf("migration failed for %s: %w", path, err))
		x2bsentry.CaptureException(err)
	}
}

func docPathOf(config *MigrationConfig) string {
	if config == nil {
		return ""
	}
	return config.DocPath
}

// MigrateDocument 便捷函数：迁移单个文档
func MigrateDocument(ctx context.Context, config *MigrationConfig) (*MigrationResult, error) {
	migrator, err := NewMigrator(config)
	if err != nil {
		return nil, err
	}

	if _, err := migrator.CheckAndRecover(); errors.Is(err, ErrLocked) {
		return nil, err
	} else if err != nil {
		logrus.WithError(err).WithField("doc_path", config.DocPath).Warn("recovery check failed")
	}

	return migrator.Run(ctx)
}
