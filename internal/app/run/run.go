package run

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/John-Robertt/djiimport/internal/app"
	"github.com/John-Robertt/djiimport/internal/app/planner"
	"github.com/John-Robertt/djiimport/internal/cleanup"
	"github.com/John-Robertt/djiimport/internal/config"
	"github.com/John-Robertt/djiimport/internal/domain"
	"github.com/John-Robertt/djiimport/internal/filer"
	"github.com/John-Robertt/djiimport/internal/infra/fsx"
	"github.com/John-Robertt/djiimport/internal/logx"
	"github.com/John-Robertt/djiimport/internal/merge"
	"github.com/John-Robertt/djiimport/internal/scan"
)

// Execute 执行一次导入，并返回汇总报告。
// 阶段严格串行：media -> panorama -> timelapse -> cleanup；单个文件失败只降级为条目失败。
func Execute(s config.Settings, opts domain.ImportOptions, log *zap.Logger) domain.RunReport {
	return ExecuteWithObserver(s, opts, log, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(s config.Settings, opts domain.ImportOptions, log *zap.Logger, obs Observer) domain.RunReport {
	log = logx.OrNop(log)
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(s, opts)

	rr := domain.RunReport{
		Source:      opts.Source,
		Destination: opts.Destination,
		DryRun:      opts.DryRun,
		StartedAt:   time.Now().UTC(),
		Phases:      make([]domain.PhaseResult, 0, 4),
	}

	emit := func(pr domain.PhaseResult, started time.Time) {
		rr.Phases = append(rr.Phases, pr)
		obs.OnPhaseResult(pr, time.Since(started))
	}

	started := time.Now()
	media, records := runMedia(s, opts, log, obs)
	emit(media, started)

	var pano, lapse domain.PhaseResult
	if opts.PanoramaEnabled() {
		started = time.Now()
		pano = runMerge(domain.PhasePanorama, filepath.Join(opts.Source, s.PanoramaFolderName), opts.PanoramaDest, opts.DryRun, log)
		emit(pano, started)
	}
	if opts.TimelapseEnabled() {
		started = time.Now()
		lapse = runMerge(domain.PhaseTimelapse, filepath.Join(opts.Source, s.TimelapsePhotoFolderName), opts.TimelapseDest, opts.DryRun, log)
		emit(lapse, started)
	}

	if opts.DeleteAfterCopy {
		started = time.Now()
		emit(runCleanup(s, opts, records, media, pano, lapse, log), started)
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	log.Info("import finished",
		zap.Int("copied", rr.Summary.Copied),
		zap.Int("skipped", rr.Summary.Skipped),
		zap.Int("failed", rr.Summary.Failed),
		zap.Int("folders_copied", rr.Summary.FoldersCopied),
		zap.Int("deleted", rr.Summary.Deleted),
	)
	return rr
}

func runMedia(s config.Settings, opts domain.ImportOptions, log *zap.Logger, obs Observer) (domain.PhaseResult, []domain.FileRecord) {
	mediaDir := filepath.Join(opts.Source, s.MediaFolderName)
	pr := domain.PhaseResult{
		Name: domain.PhaseMedia,
		Src:  mediaDir,
		Dst:  opts.Destination,
	}

	scanStarted := time.Now()
	records, err := scan.ListMedia(mediaDir)
	if err != nil {
		code := domain.ErrCodeIOFailed
		if errors.Is(err, os.ErrNotExist) {
			code = domain.ErrCodeSourceMissing
		}
		log.Error("media folder unreadable", zap.String("path", mediaDir), zap.Error(err))
		pr.Status = domain.StatusFailed
		pr.Failures = append(pr.Failures, domain.NewFailure(mediaDir, code, err))
		return pr, nil
	}
	obs.OnPhaseDone("scan", map[string]any{"files": len(records)}, time.Since(scanStarted))

	planStarted := time.Now()
	plans, err := planner.PlanMedia(records, opts.Destination, s.DateFolderFormat)
	if err != nil {
		pr.Status = domain.StatusFailed
		pr.Processed = len(records)
		pr.Failures = append(pr.Failures, domain.NewFailure(mediaDir, domain.ErrCodeInvalidFormat, err))
		// 没有任何文件被复制：不能进入删除阶段。
		return pr, nil
	}
	planner.SortPlans(plans)
	groups := app.GroupByDateFolder(plans)
	pending := 0
	for _, g := range groups {
		n := app.PendingCount(plans, g)
		pending += n
		log.Debug("date folder planned", zap.String("folder", g.Folder), zap.Int("files", len(g.PlanIdx)), zap.Int("pending", n))
	}
	obs.OnPhaseDone("plan", map[string]any{
		"files":   len(plans),
		"folders": len(groups),
		"pending": pending,
	}, time.Since(planStarted))

	res := filer.Copy(plans, filer.Options{
		DryRun: opts.DryRun,
		Logger: log,
		OnFile: obs.OnFileDone,
	})
	pr.Processed = res.Processed
	pr.Copied = res.Copied
	pr.Skipped = res.Skipped
	pr.Bytes = res.Bytes
	pr.Failures = res.Failures
	if opts.DryRun {
		pr.Note = "dry-run"
	}
	return pr, records
}

func runMerge(name, src, dst string, dryRun bool, log *zap.Logger) domain.PhaseResult {
	pr := domain.PhaseResult{Name: name, Src: src, Dst: dst}

	if !fsx.DirExists(src) {
		log.Warn("source folder not found, phase skipped", zap.String("phase", name), zap.String("path", src))
		pr.Status = domain.StatusSkipped
		pr.Note = "源目录不存在"
		return pr
	}

	res, err := merge.Merge(src, dst, merge.Options{DryRun: dryRun, Logger: log})
	if err != nil {
		log.Error("merge failed", zap.String("phase", name), zap.String("path", src), zap.Error(err))
		pr.Status = domain.StatusFailed
		pr.Failures = append(pr.Failures, domain.NewFailure(src, domain.ErrCodeIOFailed, err))
		return pr
	}

	pr.Processed = res.Processed
	pr.Copied = res.FilesCopied
	pr.Skipped = res.FilesSkipped + res.FoldersSkipped
	pr.FoldersCopied = res.FoldersCopied
	pr.Bytes = res.Bytes
	pr.Failures = res.Failures
	if dryRun {
		pr.Note = "dry-run"
	}
	return pr
}

// runCleanup 删除原始文件：已扫描的媒体文件逐个删除，已启用阶段的全景/延时根目录下
// 每个直接子目录整棵删除。不做回滚。
//
// 开启 KeepFailedSources 时，复制失败的媒体文件保留；全景/延时阶段只要有失败
// （或没有成功执行），对应的目录树整体保留。
func runCleanup(s config.Settings, opts domain.ImportOptions, records []domain.FileRecord, media, pano, lapse domain.PhaseResult, log *zap.Logger) domain.PhaseResult {
	pr := domain.PhaseResult{Name: domain.PhaseCleanup, Src: opts.Source}
	copt := cleanup.Options{DryRun: opts.DryRun, Logger: log}
	kept := 0

	deletable := records
	if opts.KeepFailedSources {
		failed := make(map[string]struct{}, len(media.Failures))
		for _, f := range media.Failures {
			failed[f.Path] = struct{}{}
		}
		deletable = lo.Reject(records, func(r domain.FileRecord, _ int) bool {
			_, bad := failed[r.Path]
			return bad
		})
		kept += len(records) - len(deletable)
	}

	if len(deletable) > 0 {
		log.Info("deleting media files", zap.String("path", media.Src), zap.Int("files", len(deletable)))
		r := cleanup.DeleteFiles(deletable, copt)
		pr.Deleted += r.Deleted
		pr.Failures = append(pr.Failures, r.Failures...)
	}

	trees := []struct {
		enabled bool
		res     domain.PhaseResult
		root    string
	}{
		{opts.PanoramaEnabled(), pano, filepath.Join(opts.Source, s.PanoramaFolderName)},
		{opts.TimelapseEnabled(), lapse, filepath.Join(opts.Source, s.TimelapsePhotoFolderName)},
	}
	for _, tr := range trees {
		if !tr.enabled || tr.res.Status == domain.StatusSkipped {
			continue
		}
		if opts.KeepFailedSources && (tr.res.Status == domain.StatusFailed || len(tr.res.Failures) > 0) {
			log.Warn("copy had failures, tree kept", zap.String("phase", tr.res.Name), zap.String("path", tr.root))
			kept++
			continue
		}
		log.Info("deleting folders", zap.String("phase", tr.res.Name), zap.String("path", tr.root))
		r := cleanup.DeleteSubdirs(tr.root, copt)
		pr.Deleted += r.Deleted
		pr.Failures = append(pr.Failures, r.Failures...)
	}

	if kept > 0 {
		pr.Skipped = kept
		pr.Note = "复制失败的源文件已保留"
	}
	if opts.DryRun {
		pr.Note = "dry-run"
	}
	return pr
}

type nopObserver struct{}

func (nopObserver) OnStart(config.Settings, domain.ImportOptions)     {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnFileDone(int, int, domain.CopyPlan, string)      {}
func (nopObserver) OnPhaseResult(domain.PhaseResult, time.Duration)   {}
