package merge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/John-Robertt/djiimport/internal/domain"
	"github.com/John-Robertt/djiimport/internal/infra/fsx"
	"github.com/John-Robertt/djiimport/internal/logx"
)

type Options struct {
	DryRun bool
	Logger *zap.Logger
}

// Result 是一次目录合并的汇总计数。
type Result struct {
	// Processed 是源根目录下直接子目录的数量（每个子目录对应一次拍摄）。
	Processed int

	FoldersCopied  int
	FoldersSkipped int
	FilesCopied    int
	FilesSkipped   int
	Bytes          int64

	Failures []domain.Failure
}

func (r *Result) add(o Result) {
	r.FoldersCopied += o.FoldersCopied
	r.FoldersSkipped += o.FoldersSkipped
	r.FilesCopied += o.FilesCopied
	r.FilesSkipped += o.FilesSkipped
	r.Bytes += o.Bytes
	r.Failures = append(r.Failures, o.Failures...)
}

// Merge 把 src 整棵目录树浅合并到 dst。
//
// 规则（与全景/延时目录的导入约定一致）：
// - dst 不存在则创建
// - src 下的直接文件：dst 中没有同名条目才复制（只比较名字，不比较内容/时间）
// - src 下的直接子目录：dst 中没有同名目录时整棵复制，新建的每个目录计数一次；
//   dst 中已有同名目录时整棵跳过，不会进入已存在的目录做部分合并
//
// 只有 src 不可读或 dst 根目录无法创建时返回 error；其余失败记录在 Result.Failures。
func Merge(src, dst string, opt Options) (Result, error) {
	log := logx.OrNop(opt.Logger)
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if !fsx.DirExists(src) {
		return Result{}, fmt.Errorf("源目录不存在：%q：%w", src, os.ErrNotExist)
	}

	res, err := copyDir(log, src, dst, opt.DryRun)
	if err != nil {
		return Result{}, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return Result{}, err
	}
	res.Processed = len(lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() }))
	return res, nil
}

func copyDir(log *zap.Logger, src, dst string, dryRun bool) (Result, error) {
	var res Result

	if !dryRun {
		if err := fsx.EnsureDir(dst); err != nil {
			return Result{}, err
		}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return Result{}, err
	}

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.Type().IsRegular() })
	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() })
	others := lo.Reject(entries, func(e os.DirEntry, _ int) bool { return e.Type().IsRegular() || e.IsDir() })

	for _, o := range others {
		log.Debug("not a regular file or directory, skipped",
			zap.String("path", filepath.Join(src, o.Name())),
			zap.String("type", o.Type().String()),
		)
	}

	for _, f := range files {
		from := filepath.Join(src, f.Name())
		to := filepath.Join(dst, f.Name())
		copyFile(log, from, to, f, dryRun, &res)
	}

	for _, d := range dirs {
		from := filepath.Join(src, d.Name())
		to := filepath.Join(dst, d.Name())

		fi, err := os.Lstat(to)
		if err == nil {
			if fi.IsDir() {
				log.Debug("directory already exists, skipped", zap.String("dst", to))
				res.FoldersSkipped++
				continue
			}
			conflict := &fsx.PathTypeConflictError{Path: to, Want: "dir", Got: "file"}
			recordFailure(log, &res, from, to, conflict)
			continue
		} else if !os.IsNotExist(err) {
			recordFailure(log, &res, from, to, err)
			continue
		}

		log.Info("copying directory", zap.String("path", from), zap.String("dst", to))
		sub, err := copyDir(log, from, to, dryRun)
		if err != nil {
			recordFailure(log, &res, from, to, err)
			continue
		}
		res.add(sub)
		res.FoldersCopied++
	}

	return res, nil
}

func copyFile(log *zap.Logger, from, to string, e os.DirEntry, dryRun bool, res *Result) {
	exists, err := fsx.Exists(to)
	if err != nil {
		recordFailure(log, res, from, to, err)
		return
	}
	if exists {
		log.Debug("file already exists, skipped", zap.String("dst", to))
		res.FilesSkipped++
		return
	}

	if dryRun {
		if info, err := e.Info(); err == nil {
			res.Bytes += info.Size()
		}
		res.FilesCopied++
		return
	}

	n, err := fsx.CopyFileNoOverwrite(from, to)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			res.FilesSkipped++
			return
		}
		recordFailure(log, res, from, to, err)
		return
	}
	res.FilesCopied++
	res.Bytes += n
}

func recordFailure(log *zap.Logger, res *Result, from, to string, err error) {
	code := domain.ErrCodeCopyFailed
	if fsx.IsPathTypeConflict(err) {
		code = domain.ErrCodeTargetConflict
	}
	log.Error("copy failed", zap.String("path", from), zap.String("dst", to), zap.Error(err))
	res.Failures = append(res.Failures, domain.NewFailure(from, code, err))
}
