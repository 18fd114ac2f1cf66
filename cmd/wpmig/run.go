package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/wpmig/internal/app/run"
	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/infra/cache"
)

type runFlags struct {
	dryRun     bool
	offline    bool
	apiBase    string
	contentDir string
}

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "抓取文章并写出 Markdown 文档与 redirect 清单",
		Long: `抓取全部文章与分类（两者并发），逐篇转换并写入内容目录，最后整体覆盖写出 redirect 清单。

单篇文章失败只记入 report，不影响其他文章（退出码仍为 0）；
抓取失败、配置错误、redirect 清单写入失败时退出码为 1。

apply 模式会写入 <path>/cache/report.json 与 <path>/cache/wp/ 下的分页快照；
--dry-run 执行全部阶段但不写任何文件。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if code := runMigration(cmd.Context(), path, f, stdout, stderr); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "执行全部阶段但不写任何文件")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "重放 cache/wp/ 下的快照，不访问网络")
	cmd.Flags().StringVar(&f.apiBase, "api-base", "", "REST API 根地址（覆盖配置与环境变量）")
	cmd.Flags().StringVar(&f.contentDir, "content-dir", "", "内容输出目录（相对 path）")
	return cmd
}

func runMigration(parent context.Context, path string, f *runFlags, stdout, stderr io.Writer) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:       path,
		APIBase:    f.apiBase,
		ContentDir: f.contentDir,
		DryRun:     f.dryRun,
		Offline:    f.offline,
	})
	if err != nil {
		emitReport(stdout, stderr, reportForConfigError(cwdAbs, f, err))
		return 1
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	progressW, interactive := pickProgressWriter(stdout, stderr)
	var obs run.Observer
	var ui *progressUI
	if interactive {
		ui = newProgressUI(progressW)
		obs = ui
	}

	res, runErr := run.ExecuteWithObserver(ctx, eff, nil, obs)
	if ui != nil {
		ui.Stop()
	}
	rr := res.Report

	// apply：写入 <root>/cache/report.json；dry-run 禁止落盘。
	if !eff.DryRun {
		if err := writeReportFile(eff.Root, rr); err != nil {
			fmt.Fprintf(stderr, "写入 report.json 失败：%v\n", err)
			emitReport(stdout, stderr, rr)
			return 1
		}
	}

	emitReport(stdout, stderr, rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "运行失败：%v\n", runErr)
		return 1
	}
	return 0
}

func emitReport(stdout, stderr io.Writer, rr domain.RunReport) {
	summary := fmt.Sprintf("完成：posts=%d converted=%d failed=%d redirects=%d collisions=%d\n",
		rr.Summary.Posts, rr.Summary.Converted, rr.Summary.Failed, rr.Summary.Redirects, rr.Summary.Collisions,
	)
	if isTTY(stdout) {
		fmt.Fprint(stdout, summary)
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := "<run>"
			if it.PostID != 0 {
				key = fmt.Sprintf("post %d", it.PostID)
			}
			fmt.Fprintf(stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
	fmt.Fprint(stderr, summary)
}

func reportForConfigError(cwdAbs string, f *runFlags, err error) domain.RunReport {
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	now := time.Now().UTC()
	rr := domain.RunReport{
		Root:       cwdAbs,
		DryRun:     f.dryRun,
		Offline:    f.offline,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return cache.New(root, false).WriteReport(b)
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if !eff.DryRun {
		fmt.Fprintf(w, "report: %s\n", cache.New(eff.Root, true).ReportPath())
		fmt.Fprintf(w, "redirects: %s\n", eff.RedirectsFile)
	}
	fmt.Fprintf(w, "content: %s\n", eff.ContentDir)
}
