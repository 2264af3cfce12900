// Package sentry 提供 Sentry 错误监控的封装
// 用于收集批量迁移中的崩溃，上报前把用户目录替换掉
package sentry

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

var (
	// initialized 标记 Sentry 是否已初始化
	initialized bool
	// initMu 保护初始化状态
	initMu sync.RWMutex
)

// homePlaceholder 上报时替换用户目录的占位符
const homePlaceholder = "~"

// Init 初始化 Sentry SDK，dsn 为空时不启用
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		BeforeSend:       beforeSendHook,
		SampleRate:       1.0,
	})
	if err != nil {
		return err
	}

	initMu.Lock()
	initialized = true
	initMu.Unlock()
	return nil
}

// IsInitialized 返回 Sentry 是否已初始化
func IsInitialized() bool {
	initMu.RLock()
	defer initMu.RUnlock()
	return initialized
}

// Flush 刷新待发送事件（程序退出前调用）
func Flush(timeout time.Duration) {
	if !IsInitialized() {
		return
	}
	sentry.Flush(timeout)
}

// Recover 用于 goroutine 的 panic 恢复，必须直接 defer 调用
// 注意：必须先调用 recover()，再检查 Sentry 状态，否则 panic 不会被捕获
func Recover() {
	err := recover()
	if err == nil {
		return
	}
	report(err)
}

// RecoverTo 与 Recover 相同，但同时把 panic 转换为错误写入 errp
func RecoverTo(errp *error) {
	p := recover()
	if p == nil {
		return
	}
	report(p)
	if errp != nil {
		*errp = fmt.Errorf("panic: %v", p)
	}
}

// Report 上报已经 recover 的 panic
func Report(p any) {
	report(p)
}

func report(p any) {
	if !IsInitialized() {
		return
	}
	if hub := sentry.CurrentHub(); hub != nil {
		hub.Recover(p)
	}
}

// Go 启动一个新的 goroutine 并自动添加 panic 恢复
func Go(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

// CaptureException 上报错误
func CaptureException(err error) {
	if !IsInitialized() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// beforeSendHook 在发送事件前把用户目录替换为占位符
func beforeSendHook(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return event
	}
	return redactEvent(event, home)
}

func redactEvent(event *sentry.Event, home string) *sentry.Event {
	event.Message = redactPath(event.Message, home)
	for i := range event.Exception {
		event.Exception[i].Value = redactPath(event.Exception[i].Value, home)
	}
	for key, value := range event.Tags {
		event.Tags[key] = redactPath(value, home)
	}
	for key, value := range event.Extra {
		if s, ok := value.(string); ok {
			event.Extra[key] = redactPath(s, home)
		}
	}
	return event
}

func redactPath(s, home string) string {
	if s == "" {
		return s
	}
	return strings.ReplaceAll(s, home, homePlaceholder)
}
