package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/scan"
	"github.com/John-Robertt/wpmig/internal/schema"
)

type validateFlags struct {
	extended   bool
	contentDir string
}

func newValidateCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "按站点 content schema 校验内容目录下的文档",
		Long: `扫描内容目录下的 .md / .mdx 文档，解析 frontmatter 并按 instructions 集合的 schema 校验。
每条违规输出一行：<相对路径>: <字段>：<原因>。存在任一无效文档时退出码为 1。

--extended 额外校验 compatibleFobs / troubleshooting / steps。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if code := runValidate(path, f, stdout, stderr); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.extended, "extended", false, "使用扩展 schema（嵌套数组字段）")
	cmd.Flags().StringVar(&f.contentDir, "content-dir", "", "内容目录（相对 path）")
	return cmd
}

func runValidate(path string, f *validateFlags, stdout, stderr io.Writer) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: path, ContentDir: f.contentDir})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	files, err := scan.ScanDocuments(eff.ContentDir, nil)
	if err != nil {
		fmt.Fprintf(stderr, "扫描 %s 失败：%v\n", eff.ContentDir, err)
		return 1
	}

	invalid := 0
	for _, doc := range files {
		b, err := os.ReadFile(doc.AbsPath)
		if err != nil {
			invalid++
			fmt.Fprintf(stdout, "%s: %v\n", filepath.ToSlash(doc.RelPath), err)
			continue
		}
		err = schema.Check(b, f.extended)
		if err == nil {
			continue
		}
		invalid++
		var ce *schema.ContractError
		if !errors.As(err, &ce) {
			fmt.Fprintf(stdout, "%s: %v\n", filepath.ToSlash(doc.RelPath), err)
			continue
		}
		for _, v := range ce.Violations {
			fmt.Fprintf(stdout, "%s: %s\n", filepath.ToSlash(doc.RelPath), v)
		}
	}

	fmt.Fprintf(stderr, "校验完成：files=%d invalid=%d\n", len(files), invalid)
	if invalid > 0 {
		return 1
	}
	return 0
}
