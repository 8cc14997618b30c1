package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
// 上层可把它映射为 error_code=target_conflict。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// DirExists 判断 path 是否存在且为目录（跟随符号链接）。
func DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Exists 判断 path 上是否已有任意类型的条目（不跟随符号链接）。
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// EnsureDir 确保 dir 为目录：不存在则创建（含父目录）；存在但不是目录则返回 PathTypeConflictError。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// CopyFileNoOverwrite 把 src 逐字节复制到 dst（临时文件 + rename），返回复制的字节数。
//
// - dst 已存在同名文件：返回 os.ErrExist（调用方按“已存在，跳过”处理）
// - dst 已存在但不是普通文件：返回 PathTypeConflictError
// - 临时文件与目标在同目录，失败时清理，不会留下半截文件
// - 保留源文件的权限位与修改时间
func CopyFileNoOverwrite(src, dst string) (int64, error) {
	dst = filepath.Clean(dst)
	if fi, err := os.Lstat(dst); err == nil {
		if fi.IsDir() {
			return 0, &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return 0, &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
		}
		return 0, os.ErrExist
	} else if !os.IsNotExist(err) {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if !srcInfo.Mode().IsRegular() {
		return 0, &PathTypeConflictError{Path: src, Want: "regular file", Got: srcInfo.Mode().Type().String()}
	}

	dir, name := filepath.Split(dst)
	// 创建同目录临时文件（前缀带 '.'，避免污染媒体库视图）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, in)
	if err != nil {
		return 0, err
	}
	if err := tmp.Chmod(srcInfo.Mode().Perm()); err != nil {
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chtimes(tmpName, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return 0, err
	}

	// rename 前再确认一次：扫描到执行之间目标可能已出现。
	if _, err := os.Lstat(dst); err == nil {
		return 0, os.ErrExist
	}
	if err := renameFunc(tmpName, dst); err != nil {
		return 0, err
	}

	_ = syncDirBestEffort(dir)
	return n, nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	if dir == "" {
		dir = "."
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
