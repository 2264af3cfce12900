package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xplane2blender/x2b-updater/src/configs"
)

// New 按配置初始化全局 logrus 标准 logger。
// 返回的 close 函数用于关闭本次运行的日志文件，可以安全地重复调用。
func New(cfg *configs.Config) (logger *logrus.Logger, closeFn func(), err error) {
	if cfg == nil {
		cfg = configs.NewConfig()
	}
	writers := []io.Writer{os.Stderr}
	closeFn = func() {}

	if cfg.Log.SaveEveryLog {
		outputFolder := cfg.Log.OutPutFolder
		if _, err := os.Stat(outputFolder); err != nil {
			return nil, nil, fmt.Errorf("failed to determine log output folder %s: %w", outputFolder, err)
		}
		runID := time.Now().Format("run-2006-01-02-15-04-05")
		logLocation := filepath.Join(outputFolder, runID+".log")
		logFile, err := os.OpenFile(logLocation, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s for output: %w", logLocation, err)
		}
		writers = append(writers, logFile)
		closed := false
		closeFn = func() {
			if closed {
				return
			}
			closed = true
			logrus.SetOutput(os.Stderr)
			_ = logFile.Close()
		}
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetReportCaller(false)
	}

	return logrus.StandardLogger(), closeFn, nil
}
