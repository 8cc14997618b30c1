package cleanup

import (
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

type Result struct {
	Deleted  int
	Missing  bool // 根目录不存在，什么都没做
	Failures []domain.Failure
}

// DeleteFiles 逐个删除已扫描的媒体文件。单个失败只记录，不中断批次；媒体目录本身保留。
func DeleteFiles(records []domain.FileRecord, opt Options) Result {
	log := logx.OrNop(opt.Logger)
	var res Result

	for _, rec := range records {
		if opt.DryRun {
			log.Debug("would delete file", zap.String("path", rec.Path))
			res.Deleted++
			continue
		}
		if err := os.Remove(rec.Path); err != nil {
			log.Error("delete failed", zap.String("path", rec.Path), zap.Error(err))
			res.Failures = append(res.Failures, domain.NewFailure(rec.Path, domain.ErrCodeDeleteFailed, err))
			continue
		}
		res.Deleted++
	}
	return res
}

// DeleteSubdirs 递归删除 root 下的每个直接子目录。
// root 下的散落文件与 root 本身保留；root 不存在时返回 Missing=true。
func DeleteSubdirs(root string, opt Options) Result {
	log := logx.OrNop(opt.Logger)
	var res Result

	if !fsx.DirExists(root) {
		res.Missing = true
		return res
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		log.Error("read dir failed", zap.String("path", root), zap.Error(err))
		res.Failures = append(res.Failures, domain.NewFailure(root, domain.ErrCodeIOFailed, err))
		return res
	}

	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() })
	for _, d := range dirs {
		p := filepath.Join(root, d.Name())
		if opt.DryRun {
			log.Debug("would delete directory", zap.String("path", p))
			res.Deleted++
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			log.Error("delete failed", zap.String("path", p), zap.Error(err))
			res.Failures = append(res.Failures, domain.NewFailure(p, domain.ErrCodeDeleteFailed, err))
			continue
		}
		res.Deleted++
	}
	return res
}
