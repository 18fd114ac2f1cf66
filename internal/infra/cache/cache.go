package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/wpmig/internal/infra/fsx"
)

// Store 提供 <root>/cache/ 下的文件读写：WordPress API 分页快照与 report.json。
//
// 约束：
// - dry-run / offline：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
// - 快照是一次完整抓取的原样记录，只用于 --offline 重放；不做增量判断
type Store struct {
	Root     string // 项目根目录
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// Dir 返回 <root>/cache。
func (s Store) Dir() string { return filepath.Join(s.Root, "cache") }

// ReportPath 返回 report.json 的绝对路径。
func (s Store) ReportPath() string { return filepath.Join(s.Dir(), "report.json") }

// PagePath 返回某个集合第 page 页快照的绝对路径。
func (s Store) PagePath(collection string, page int) (string, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return "", err
	}
	if page < 1 {
		return "", fmt.Errorf("非法页码：%d", page)
	}
	return filepath.Join(s.Dir(), "wp", c, fmt.Sprintf("page-%04d.json", page)), nil
}

// ReadPage 读取快照；不存在时 ok=false 且不报错。
func (s Store) ReadPage(collection string, page int) ([]byte, bool, error) {
	path, err := s.PagePath(collection, page)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WritePage(collection string, page int, body []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.PagePath(collection, page)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), body)
}

// ResetCollection 删除某个集合的全部快照（重新记录前调用，避免残留旧的尾页）。
func (s Store) ResetCollection(collection string) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	c, err := cleanCollection(collection)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.Dir(), "wp", c))
}

func (s Store) WriteReport(b []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	return fsx.WriteFileAtomic(s.Dir(), "report.json", b)
}

var collectionRE = regexp.MustCompile(`^[a-z0-9_-]+$`)

func cleanCollection(c string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return "", fmt.Errorf("collection 不能为空")
	}
	// 最小约束：避免路径穿越；集合名本身是枚举（posts/categories）。
	if !collectionRE.MatchString(c) {
		return "", fmt.Errorf("非法 collection：%q", c)
	}
	return c, nil
}
