package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/alecthomas/kingpin"
	log "github.com/sirupsen/logrus"
)

// 全局变量，用于存储命令行参数
var customVersion string

func main() {
	os.Exit(RunCmd(os.Args[1:]))
}

func RunCmd(args []string) int {
	app := kingpin.New("Build tool", "x2b-updater Build tool.")

	// dev 命令支持 --version 参数
	devCmd := app.Command("dev", "Build for development.")
	devCmd.Flag("version", "自定义版本号（用于测试迁移）").StringVar(&customVersion)
	devCmd.Action(devBuild)

	app.Command("release", "Build for release.").Action(releaseBuild)
	app.Command("test", "Run tests.").Action(goTest)
	app.Command("generate", "go generate ./...").Action(goGenerate)
	app.Command("clean", "清理构建产物").Action(cleanBuild)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func devBuild(c *kingpin.ParseContext) error {
	// 如果指定了自定义版本号，设置环境变量供 GetBuildFlags 使用
	if customVersion != "" {
		os.Setenv("APP_VERSION", customVersion)
	}
	return BuildGoBinary(true)
}

func releaseBuild(c *kingpin.ParseContext) error {
	return BuildGoBinary(false)
}

func goTest(c *kingpin.ParseContext) error {
	return execCommand("go", "test",
		"-tags", "release",
		"--cover",
		"-coverprofile=coverage.txt",
		"./src/...",
	)
}

func goGenerate(c *kingpin.ParseContext) error {
	return execCommand("go", "generate", "./...")
}

// cleanBuild 清理构建产物（跨平台）
func cleanBuild(c *kingpin.ParseContext) error {
	for _, p := range []string{"bin", "coverage.txt"} {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("删除 %s 失败: %w", p, err)
		}
		fmt.Printf("已删除: %s\n", p)
	}
	fmt.Println("清理完成")
	return nil
}

func execCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	log.Print(cmd.String())
	return cmd.Run()
}
