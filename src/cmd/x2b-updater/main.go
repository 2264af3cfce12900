package main

import (
	"fmt"
	"os"
	"time"

	x2bsentry "github.com/xplane2blender/x2b-updater/src/pkg/sentry"
)

var (
	// SentryDSN Sentry DSN (编译时注入，请勿在源代码中硬编码)
	// 使用 -ldflags="-X main.SentryDSN=your_dsn" 在编译时注入
	// 或设置环境变量 SENTRY_DSN
	SentryDSN = ""
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return guard(func() int {
		return newCLI(os.Stdout).run(args)
	})
}

// guard 执行 f，panic 时上报并返回退出码 1
func guard(f func() int) (code int) {
	// 程序退出时刷新 Sentry 事件队列
	defer x2bsentry.Flush(2 * time.Second)
	defer func() {
		if r := recover(); r != nil {
			x2bsentry.Report(r)
			fmt.Fprintf(os.Stderr, "x2b-updater: panic: %v\n", r)
			code = 1
		}
	}()
	return f()
}
