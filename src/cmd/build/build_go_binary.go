package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"
)

// BuildFlags 包含构建所需的参数
type BuildFlags struct {
	Tags         string
	GcFlags      string
	LdFlags      string
	DebugLdFlags string // -s -w（release 模式）或空（dev 模式）
}

const (
	// constsPath 是注入版本信息的包路径
	constsPath = "github.com/xplane2blender/x2b-updater/src/consts"
	// mainPkg 被构建的命令
	mainPkg = "./src/cmd/x2b-updater"
)

var ldFlagsTmpl = template.Must(template.New("ldFlags").Parse(
	"-X {{.ConstsPath}}.BuildTime={{.Now}} " +
		"-X {{.ConstsPath}}.AppVersion={{.AppVersion}} " +
		"-X {{.ConstsPath}}.GitHash={{.GitHash}}" +
		"{{if .SentryDSN}} -X main.SentryDSN={{.SentryDSN}}{{end}}"))

// GetBuildFlags 返回构建参数
// 版本号优先级：环境变量 APP_VERSION > git tag。git tag 形如 v3.4.0 时去掉前缀 v
func GetBuildFlags(isDev bool) BuildFlags {
	appVersion := os.Getenv("APP_VERSION")
	if appVersion == "" {
		appVersion = strings.TrimPrefix(getGitTagString(), "v")
	}

	var buf bytes.Buffer
	_ = ldFlagsTmpl.Execute(&buf, map[string]string{
		"ConstsPath": constsPath,
		"Now":        fmt.Sprintf("%d", time.Now().Unix()),
		"AppVersion": appVersion,
		"GitHash":    getGitHash(),
		"SentryDSN":  os.Getenv("SENTRY_DSN"),
	})

	if isDev {
		return BuildFlags{
			Tags:    "dev",
			GcFlags: "all=-N -l", // 禁用优化以便调试
			LdFlags: strings.TrimSpace(buf.String()),
		}
	}
	return BuildFlags{
		Tags:         "release",
		LdFlags:      strings.TrimSpace(buf.String()),
		DebugLdFlags: "-s -w",
	}
}

// BuildGoBinary 构建到 bin/x2b-updater-{平台}-{架构}
func BuildGoBinary(isDev bool) error {
	goHostOS := envOr("PLATFORM", runtime.GOOS)
	goHostArch := envOr("ARCH", runtime.GOARCH)
	flags := GetBuildFlags(isDev)

	fmt.Printf("building x2b-updater (Platform: %s, Arch: %s, GoVersion: %s, Tags: %s)\n",
		goHostOS, goHostArch, runtime.Version(), flags.Tags)

	ldflags := flags.LdFlags
	if flags.DebugLdFlags != "" {
		ldflags = flags.DebugLdFlags + " " + ldflags
	}
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}

	cmd := exec.Command(
		"go", "build",
		"-tags", flags.Tags,
		`-gcflags=`+flags.GcFlags,
		"-o", "bin/"+generateBinaryName(goHostOS, goHostArch),
		"-ldflags="+ldflags,
		mainPkg,
	)
	cmd.Env = append(os.Environ(),
		"GOOS="+goHostOS,
		"GOARCH="+goHostArch,
		"CGO_ENABLED=0",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	log.Print(cmd.String())
	return cmd.Run()
}

func generateBinaryName(goHostOS string, goHostArch string) string {
	binaryName := "x2b-updater-" + goHostOS + "-" + goHostArch
	if goHostOS == "windows" {
		binaryName += ".exe"
	}
	return binaryName
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getGitHash() string {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func getGitTagString() string {
	out, err := exec.Command("git", "describe", "--tags", "--always").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
