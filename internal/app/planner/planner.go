package planner

import (
	"bytes"
	"os"

	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/infra/fsx"
)

// TargetState 比较目标文件现状与即将写入的内容（只读，不做任何写入）。
//
// 返回值：
// - created：目标不存在
// - updated：目标存在但内容不同
// - unchanged：目标内容与 data 逐字节一致
//
// 目标路径是目录时返回 *fsx.PathTypeConflictError。
func TargetState(path string, data []byte) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TargetCreated, nil
		}
		return "", err
	}
	if fi.IsDir() {
		return "", &fsx.PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
	}
	if fi.Size() != int64(len(data)) {
		return domain.TargetUpdated, nil
	}

	old, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.Equal(old, data) {
		return domain.TargetUnchanged, nil
	}
	return domain.TargetUpdated, nil
}
