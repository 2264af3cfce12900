package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/xplane2blender/x2b-updater/src/configs"
	"github.com/xplane2blender/x2b-updater/src/consts"
	"github.com/xplane2blender/x2b-updater/src/log"
	"github.com/xplane2blender/x2b-updater/src/metrics"
	"github.com/xplane2blender/x2b-updater/src/pkg/document"
	"github.com/xplane2blender/x2b-updater/src/pkg/history"
	"github.com/xplane2blender/x2b-updater/src/pkg/migration"
	x2bsentry "github.com/xplane2blender/x2b-updater/src/pkg/sentry"
)

// cli 命令行参数与运行期依赖
type cli struct {
	out io.Writer
	app *kingpin.Application

	envFile       string
	configFile    string
	debug         bool
	targetVersion string

	migrateDocs []string
	parallel    int
	noBackup    bool

	stampDocs   []string
	inspectDoc  string
	recoverDocs []string
	rollbackDoc string

	historyDoc   string
	historyLimit int

	config  *configs.Config
	updater *migration.Updater
	store   *history.Store
	logger  *logrus.Entry
}

func newCLI(out io.Writer) *cli {
	c := &cli{out: out}

	app := kingpin.New("x2b-updater", "Upgrade XPlane2Blender scene documents written by older versions.")
	app.Version(consts.GetAppInfo().AppVersion)
	app.HelpFlag.Short('h')
	app.Flag("env-file", ".env 文件路径").Default(".env").StringVar(&c.envFile)
	app.Flag("config", "配置文件路径").Short('c').Envar("X2B_CONFIG").StringVar(&c.configFile)
	app.Flag("debug", "输出调试日志").BoolVar(&c.debug)
	app.Flag("target-version", "迁移目标版本（覆盖 current_version）").StringVar(&c.targetVersion)

	migrate := app.Command("migrate", "迁移文档到当前版本")
	migrate.Arg("documents", "文档路径（.json/.yml/.yaml）").Required().StringsVar(&c.migrateDocs)
	migrate.Flag("parallel", "同时迁移的文档数，0 表示使用配置").Short('p').Default("0").IntVar(&c.parallel)
	migrate.Flag("no-backup", "不备份原文件").BoolVar(&c.noBackup)

	stamp := app.Command("stamp", "只写入当前版本号，不做迁移")
	stamp.Arg("documents", "文档路径").Required().StringsVar(&c.stampDocs)

	inspect := app.Command("inspect", "显示文档的版本号以及加载时会执行的步骤")
	inspect.Arg("document", "文档路径").Required().StringVar(&c.inspectDoc)

	recoverCmd := app.Command("recover", "还原上次没有正常结束的迁移")
	recoverCmd.Arg("documents", "文档路径").Required().StringsVar(&c.recoverDocs)

	rollback := app.Command("rollback", "用最近的备份还原文档")
	rollback.Arg("document", "文档路径").Required().StringVar(&c.rollbackDoc)

	hist := app.Command("history", "列出迁移记录")
	hist.Arg("document", "只显示该文档的记录").StringVar(&c.historyDoc)
	hist.Flag("limit", "最多显示的条数").Short('n').Default("20").IntVar(&c.historyLimit)

	c.app = app
	return c
}

// run 解析参数并执行命令，返回进程退出码
func (c *cli) run(args []string) int {
	command, err := c.app.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", c.app.Name, err)
		return 2
	}

	closeFn, err := c.setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "migrate":
		err = c.runMigrate(ctx)
	case "stamp":
		err = c.runStamp(ctx)
	case "inspect":
		err = c.runInspect()
	case "recover":
		err = c.runRecover()
	case "rollback":
		err = c.runRollback()
	case "history":
		err = c.runHistory(ctx)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}

	if path := c.config.Metrics.Textfile; path != "" {
		if werr := metrics.WriteToTextfile(path); werr != nil {
			c.logger.WithError(werr).Warn("failed to write metrics textfile")
		}
	}

	if err != nil {
		c.logger.WithError(err).Error(command + " failed")
		x2bsentry.CaptureException(err)
		return 1
	}
	return 0
}

// setup 加载环境变量与配置，初始化日志、Sentry、目标版本与迁移记录
func (c *cli) setup() (func(), error) {
	if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", c.envFile, err)
	}
	if c.configFile == "" {
		c.configFile = os.Getenv("X2B_CONFIG")
	}

	cfg := configs.NewConfig()
	if c.configFile != "" {
		loaded, err := configs.NewConfigWithFile(c.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.debug {
		cfg.Debug = true
	}
	if c.targetVersion != "" {
		cfg.CurrentVersion = c.targetVersion
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	configs.SetCurrentConfig(cfg)
	c.config = cfg

	_, closeLog, err := log.New(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logrus.WithField("component", "cli")

	// DSN 来源优先级：编译时注入 > 配置 > 环境变量 SENTRY_DSN
	dsn := SentryDSN
	if dsn == "" {
		dsn = cfg.Sentry.DSN
	}
	if dsn == "" {
		dsn = os.Getenv("SENTRY_DSN")
	}
	if err := x2bsentry.Init(dsn, cfg.Sentry.Environment, consts.GetAppInfo().AppVersion); err != nil {
		c.logger.WithError(err).Warn("failed to initialize sentry")
	}

	current, ok, err := cfg.TargetVersion()
	if err != nil {
		closeLog()
		return nil, err
	}
	if !ok {
		if current, err = consts.CurrentVersion(); err != nil {
			closeLog()
			return nil, err
		}
	}
	c.updater = migration.NewUpdater(current, nil)

	closeFn := closeLog
	if cfg.History.Enable {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			closeLog()
			return nil, err
		}
		c.store = store
		closeFn = func() {
			_ = store.Close()
			closeLog()
		}
	}
	return closeFn, nil
}

func (c *cli) migrationConfig(path string) *migration.MigrationConfig {
	return &migration.MigrationConfig{
		DocPath: path,
		Updater: c.updater,
		Backup:  c.config.Backup.Enable && !c.noBackup,
		History: c.store,
	}
}

func (c *cli) runMigrate(ctx context.Context) error {
	parallel := c.parallel
	if parallel <= 0 {
		parallel = c.config.Batch.Parallel
	}

	batch := migration.NewBatchMigrator()
	for _, p := range c.migrateDocs {
		batch.Add(c.migrationConfig(p))
	}
	result := batch.Run(ctx, parallel)

	for _, p := range c.migrateDocs {
		res, ok := result.Results[p]
		switch {
		case !ok:
			fmt.Fprintf(c.out, "%s: failed\n", p)
		case res.Migrated:
			fmt.Fprintf(c.out, "%s: %s -> %s (%s)", p, res.FromVersion, res.ToVersion, strings.Join(res.Steps, ", "))
			if n := len(res.CorruptRecords()); n > 0 {
				fmt.Fprintf(c.out, ", %d corrupt record(s) skipped", n)
			}
			fmt.Fprintln(c.out)
		default:
			fmt.Fprintf(c.out, "%s: up to date (%s)\n", p, res.FromVersion)
		}
	}
	return result.Err()
}

func (c *cli) runStamp(ctx context.Context) error {
	var errs []error
	for _, p := range c.stampDocs {
		m, err := migration.NewMigrator(c.migrationConfig(p))
		if err == nil {
			err = m.Stamp(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		fmt.Fprintf(c.out, "%s: stamped %s\n", p, c.updater.Current())
	}
	return multierr.Combine(errs...)
}

func (c *cli) runInspect() error {
	raw, present, err := document.PeekVersion(c.inspectDoc, migration.StampKey)
	if err != nil {
		return err
	}
	from, err := migration.ResolveStamp(raw, present)
	if err != nil {
		return err
	}

	stamp := fmt.Sprintf("%v", raw)
	if !present {
		stamp = "(missing)"
	}
	fmt.Fprintf(c.out, "document:        %s\n", c.inspectDoc)
	fmt.Fprintf(c.out, "stamp:           %s\n", stamp)
	fmt.Fprintf(c.out, "file version:    %s\n", from)
	fmt.Fprintf(c.out, "current version: %s\n", c.updater.Current())

	steps := c.updater.Plan(from)
	if len(steps) == 0 {
		fmt.Fprintln(c.out, "up to date, nothing to do")
		return nil
	}
	fmt.Fprintln(c.out, "pending steps:")
	for _, s := range steps {
		fmt.Fprintf(c.out, "  %s  %-22s %s\n", s.Threshold, s.Name, s.Description)
	}
	return nil
}

func (c *cli) runRecover() error {
	var errs []error
	for _, p := range c.recoverDocs {
		m, err := migration.NewMigrator(c.migrationConfig(p))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		recovered, err := m.CheckAndRecover()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if recovered {
			fmt.Fprintf(c.out, "%s: recovered\n", p)
		} else {
			fmt.Fprintf(c.out, "%s: nothing to recover\n", p)
		}
	}
	return multierr.Combine(errs...)
}

func (c *cli) runRollback() error {
	m, err := migration.NewMigrator(c.migrationConfig(c.rollbackDoc))
	if err != nil {
		return err
	}
	if err := m.Rollback(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: restored from backup\n", c.rollbackDoc)
	return nil
}

func (c *cli) runHistory(ctx context.Context) error {
	if c.store == nil {
		return errors.New("migration history is disabled (history.enable: false)")
	}
	passes, err := c.store.List(ctx, c.historyDoc, c.historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDOCUMENT\tFROM\tTO\tMIGRATED\tCORRUPT\tSTEPS")
	for _, p := range passes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\t%s\n",
			p.CreatedAt.Format(time.DateTime), p.DocPath, p.FromVersion, p.ToVersion,
			p.Migrated, p.CorruptRecords, strings.Join(p.Steps, ","))
	}
	return w.Flush()
}
