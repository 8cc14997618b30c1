package filer

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/John-Robertt/djiimport/internal/domain"
	"github.com/John-Robertt/djiimport/internal/infra/fsx"
	"github.com/John-Robertt/djiimport/internal/logx"
)

// Options 控制一次媒体归档的执行方式。
type Options struct {
	DryRun bool
	Logger *zap.Logger

	// OnFile 在每个计划处理完成后调用（idx 从 1 开始），status 取 domain.FileStatus*。
	OnFile func(idx, total int, p domain.CopyPlan, status string)
}

// Result 是媒体归档的计数结果。
type Result struct {
	Processed int
	Copied    int
	Skipped   int
	Bytes     int64

	Failures []domain.Failure
}

// Copy 按计划把媒体文件复制到各自的日期目录。
//
// 规则：
// - 目标已存在同名文件：记录日志并跳过（不比较内容）
// - 单个文件失败只记录，不中断后续文件
// - dry-run：不创建目录、不复制，计划内的文件按“将复制”计数
func Copy(plans []domain.CopyPlan, opt Options) Result {
	log := logx.OrNop(opt.Logger)
	res := Result{Processed: len(plans)}

	for i, p := range plans {
		status := copyOne(log, p, opt.DryRun, &res)
		if opt.OnFile != nil {
			opt.OnFile(i+1, len(plans), p, status)
		}
	}
	return res
}

func copyOne(log *zap.Logger, p domain.CopyPlan, dryRun bool, res *Result) string {
	src := p.Record.Path

	if p.Exists {
		logExists(log, p.DstPath)
		res.Skipped++
		return domain.FileStatusExists
	}

	if dryRun {
		log.Debug("would copy file", zap.String("path", src), zap.String("dst", p.DstPath))
		res.Copied++
		res.Bytes += p.Record.Size
		return domain.FileStatusPlanned
	}

	if err := fsx.EnsureDir(p.DstDir); err != nil {
		fail(log, res, src, p.DstDir, err)
		return domain.FileStatusFailed
	}

	log.Info("copying file", zap.String("path", src), zap.String("dst", p.DstPath))
	n, err := fsx.CopyFileNoOverwrite(src, p.DstPath)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// 规划之后才出现的同名文件：与规划时已存在同样处理。
			logExists(log, p.DstPath)
			res.Skipped++
			return domain.FileStatusExists
		}
		fail(log, res, src, p.DstPath, err)
		return domain.FileStatusFailed
	}

	res.Copied++
	res.Bytes += n
	return domain.FileStatusCopied
}

func logExists(log *zap.Logger, dst string) {
	log.Info("file already exists, copy skipped", zap.String("dst", dst))
}

func fail(log *zap.Logger, res *Result, src, dst string, err error) {
	code := domain.ErrCodeCopyFailed
	if fsx.IsPathTypeConflict(err) {
		code = domain.ErrCodeTargetConflict
	}
	log.Error("copy failed", zap.String("path", src), zap.String("dst", dst), zap.Error(err))
	res.Failures = append(res.Failures, domain.NewFailure(src, code, err))
}
