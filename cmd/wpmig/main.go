package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError 携带进程退出码；对应的信息已由命令自身输出。
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// execute 返回进程退出码：0 成功（允许单篇文章失败）；1 致命错误或校验不通过；2 用法错误。
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		fmt.Fprint(stderr, root.UsageString())
		return 2
	}
	return 0
}

type globalFlags struct {
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "wpmig",
		Short: "WordPress 文章迁移为 Markdown + YAML frontmatter",
		Long: `wpmig 从 WordPress REST API 拉取全部文章，转换为带 frontmatter 的 Markdown，
按 <make>/<model>/<year>.md 写入内容目录，并输出旧链接到新路径的 redirect 清单。

示例：
  wpmig run                       # 在当前目录执行迁移（读取 wpmig.json / .env）
  wpmig run ./site --dry-run      # 只预览，不写任何文件
  wpmig run --offline             # 重放上次抓取的快照，不访问网络
  wpmig validate ./site           # 按站点 schema 校验已生成的文档`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(stderr, g.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "输出调试日志（含每页抓取记录）")

	root.AddCommand(newRunCmd(stdout, stderr))
	root.AddCommand(newValidateCmd(stdout, stderr))
	return root
}

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(stdout) {
		return stdout, true
	}
	return nil, false
}
