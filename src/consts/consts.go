package consts

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/xplane2blender/x2b-updater/src/pkg/version"
)

const (
	AppName = "XPlane2Blender"
)

// DefaultAppVersion 未通过 -ldflags 注入版本号时使用的工具版本
const DefaultAppVersion = "3.4.0"

type Info struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
	BuildTime  string `json:"build_time"`
	GitHash    string `json:"git_hash"`
	Pid        int    `json:"pid"`
	Platform   string `json:"platform"`
	GoVersion  string `json:"go_version"`
}

var (
	BuildTime  string
	AppVersion string
	GitHash    string
)

var (
	currentOnce    sync.Once
	currentVersion version.Version
	currentErr     error
)

// CurrentVersion 返回当前工具版本，每个进程只解析一次
func CurrentVersion() (version.Version, error) {
	currentOnce.Do(func() {
		raw := AppVersion
		if raw == "" {
			raw = DefaultAppVersion
		}
		currentVersion, currentErr = version.Parse(raw)
		if currentErr != nil {
			currentErr = fmt.Errorf("app version: %w", currentErr)
		}
	})
	return currentVersion, currentErr
}

// GetAppInfo 返回应用信息
func GetAppInfo() Info {
	appVersion := AppVersion
	if appVersion == "" {
		appVersion = DefaultAppVersion
	}
	return Info{
		AppName:    AppName,
		AppVersion: appVersion,
		BuildTime:  BuildTime,
		GitHash:    GitHash,
		Pid:        os.Getpid(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion:  runtime.Version(),
	}
}
