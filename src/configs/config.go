package configs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/xplane2blender/x2b-updater/src/pkg/version"
)

// Log 日志配置
type Log struct {
	OutPutFolder string `yaml:"out_put_folder" json:"out_put_folder"`
	// SaveEveryLog 为 true 时每次运行单独保存一个日志文件
	SaveEveryLog bool `yaml:"save_every_log" json:"save_every_log"`
}

// Backup 迁移前备份配置
type Backup struct {
	Enable bool `yaml:"enable" json:"enable"`
}

// History 迁移记录配置
type History struct {
	Enable bool   `yaml:"enable" json:"enable"`
	DBPath string `yaml:"db_path" json:"db_path"`
}

// Metrics 指标导出配置
type Metrics struct {
	// Textfile 非空时在每次运行结束后写入 prometheus 文本格式的指标
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Batch 批量迁移配置
type Batch struct {
	Parallel int `yaml:"parallel" json:"parallel"`
}

// Sentry 错误上报配置
type Sentry struct {
	DSN         string `yaml:"dsn" json:"dsn"`
	Environment string `yaml:"environment" json:"environment"`
}

// Config content all config info.
type Config struct {
	File           string  `yaml:"-" json:"-"`
	Debug          bool    `yaml:"debug" json:"debug"`
	CurrentVersion string  `yaml:"current_version" json:"current_version"`
	Log            Log     `yaml:"log" json:"log"`
	Backup         Backup  `yaml:"backup" json:"backup"`
	History        History `yaml:"history" json:"history"`
	Metrics        Metrics `yaml:"metrics" json:"metrics"`
	Batch          Batch   `yaml:"batch" json:"batch"`
	Sentry         Sentry  `yaml:"sentry" json:"sentry"`
}

var config atomic.Value // stores *Config

// SetCurrentConfig 设置全局配置
func SetCurrentConfig(cfg *Config) {
	config.Store(cfg)
}

// GetCurrentConfig 获取全局配置，未设置时返回 nil
func GetCurrentConfig() *Config {
	if c, ok := config.Load().(*Config); ok {
		return c
	}
	return nil
}

// IsDebug 当前是否处于调试模式
func IsDebug() bool {
	c := GetCurrentConfig()
	return c != nil && c.Debug
}

var defaultConfig = Config{
	Debug:          false,
	CurrentVersion: "",
	Log: Log{
		OutPutFolder: "./",
		SaveEveryLog: false,
	},
	Backup: Backup{
		Enable: true,
	},
	History: History{
		Enable: true,
		DBPath: "x2b-history.db",
	},
	Batch: Batch{
		Parallel: 1,
	},
	Sentry: Sentry{
		Environment: "production",
	},
}

func NewConfig() *Config {
	c := defaultConfig
	return &c
}

// Verify 检查配置是否合法
func (c *Config) Verify() error {
	if c == nil {
		return fmt.Errorf("配置不存在")
	}
	if c.CurrentVersion != "" {
		if _, err := version.Parse(c.CurrentVersion); err != nil {
			return fmt.Errorf("current_version 无效: %w", err)
		}
	}
	if c.Batch.Parallel < 1 {
		return fmt.Errorf("batch.parallel 必须大于 0")
	}
	if c.History.Enable && c.History.DBPath == "" {
		return fmt.Errorf("已启用迁移记录但未设置 history.db_path")
	}
	if c.Log.OutPutFolder != "" {
		if info, err := os.Stat(c.Log.OutPutFolder); err != nil || !info.IsDir() {
			return fmt.Errorf(`日志目录 "%s" 不存在`, c.Log.OutPutFolder)
		}
	}
	return nil
}

// TargetVersion 返回配置覆盖的目标版本；未覆盖时 ok 为 false
func (c *Config) TargetVersion() (v version.Version, ok bool, err error) {
	if c == nil || c.CurrentVersion == "" {
		return version.Version{}, false, nil
	}
	v, err = version.Parse(c.CurrentVersion)
	if err != nil {
		return version.Version{}, false, err
	}
	return v, true, nil
}

// HistoryPath 返回迁移记录数据库路径，相对路径以配置文件所在目录为基准
func (c *Config) HistoryPath() string {
	p := c.History.DBPath
	if p == "" || filepath.IsAbs(p) || c.File == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.File), p)
}

func NewConfigWithBytes(b []byte) (*Config, error) {
	config := defaultConfig
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func NewConfigWithFile(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("can`t open file: %s: %w", file, err)
	}
	config, err := NewConfigWithBytes(b)
	if err != nil {
		return nil, err
	}
	config.File = file
	// 补全缺失字段后写回
	if err := config.Marshal(); err != nil {
		return nil, err
	}
	return config, nil
}

// Marshal 将配置连同注释写回 File
func (c *Config) Marshal() error {
	if c.File == "" {
		return errors.New("config path not set")
	}
	b, err := c.encode()
	if err != nil {
		return err
	}
	return os.WriteFile(c.File, b, 0644)
}

func (c *Config) encode() ([]byte, error) {
	var node yaml.Node
	tmp, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(tmp, &node); err != nil {
		return nil, err
	}

	DecorateConfigNode(&node)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
