package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/John-Robertt/djiimport/internal/app/run"
	"github.com/John-Robertt/djiimport/internal/config"
	"github.com/John-Robertt/djiimport/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 把 run 层的事件渲染成终端输出。
//
// 交互终端下媒体阶段用进度条展示；否则逐个文件打印一行。
type progressUI struct {
	w      io.Writer
	useBar bool

	mu        sync.Mutex
	startedAt time.Time
	container *mpb.Progress
	bar       *mpb.Bar
}

func newProgressUI(w io.Writer, useBar bool) *progressUI {
	return &progressUI{w: w, useBar: useBar}
}

func (p *progressUI) OnStart(s config.Settings, opts domain.ImportOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.startedAt = now

	mode := "apply"
	if opts.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(p.w, "[%s] 开始导入 (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  source: %s\n", opts.Source)
	fmt.Fprintf(p.w, "  media: %s\n", s.MediaFolderName)
	fmt.Fprintf(p.w, "  destination: %s\n", opts.Destination)
	fmt.Fprintf(p.w, "  date_folder_format: %s\n", s.DateFolderFormat)
	fmt.Fprintf(p.w, "  panorama: %s\n", destOrOff(s.PanoramaFolderName, opts.PanoramaDest))
	fmt.Fprintf(p.w, "  timelapse: %s\n", destOrOff(s.TimelapsePhotoFolderName, opts.TimelapseDest))
	fmt.Fprintf(p.w, "  delete_after_copy: %s\n", onOff(opts.DeleteAfterCopy))
	if opts.DeleteAfterCopy && opts.KeepFailedSources {
		fmt.Fprintln(p.w, "  keep_failed_sources: on")
	}
	if s.File != "" {
		fmt.Fprintf(p.w, "  config: %s\n", s.File)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "plan":
		files := intField(fields, "files")
		fmt.Fprintf(p.w, "规划: files=%d date_folders=%d pending=%d (%s)\n",
			files, intField(fields, "folders"), intField(fields, "pending"), formatShortDuration(dur),
		)
		if p.useBar && files > 0 {
			p.startBarLocked(files)
		}
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnFileDone(idx, total int, plan domain.CopyPlan, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Increment()
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s %s -> %s\n", idx, total, fileStatusLabel(status), plan.Record.Name, plan.DstDir)
}

func (p *progressUI) OnPhaseResult(res domain.PhaseResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBarLocked()

	label := phaseLabel(res.Name)
	if res.Status == domain.StatusSkipped {
		fmt.Fprintf(p.w, "%s: 跳过（%s）\n", label, res.Note)
		return
	}

	switch res.Name {
	case domain.PhaseMedia:
		fmt.Fprintf(p.w, "%s: processed=%d copied=%d skipped=%d failed=%d size=%s -> %s (%s)\n",
			label, res.Processed, res.Copied, res.Skipped, len(res.Failures),
			humanize.IBytes(uint64(res.Bytes)), res.Dst, formatShortDuration(dur),
		)
	case domain.PhasePanorama, domain.PhaseTimelapse:
		fmt.Fprintf(p.w, "%s: processed=%d folders_copied=%d files_copied=%d skipped=%d failed=%d size=%s -> %s (%s)\n",
			label, res.Processed, res.FoldersCopied, res.Copied, res.Skipped, len(res.Failures),
			humanize.IBytes(uint64(res.Bytes)), res.Dst, formatShortDuration(dur),
		)
	case domain.PhaseCleanup:
		fmt.Fprintf(p.w, "%s: deleted=%d kept=%d failed=%d (%s)\n",
			label, res.Deleted, res.Skipped, len(res.Failures), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s: %s (%s)\n", label, res.Status, formatShortDuration(dur))
	}
	if res.Note != "" {
		fmt.Fprintf(p.w, "  note: %s\n", res.Note)
	}
}

func (p *progressUI) startBarLocked(total int) {
	p.container = mpb.New(
		mpb.WithOutput(p.w),
		mpb.WithRefreshRate(120*time.Millisecond),
		mpb.WithWidth(48),
	)
	name := "复制媒体"
	p.bar = p.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+" ", decor.WC{C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
			decor.OnComplete(
				decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), " ✓ ",
			),
		),
	)
}

// stopBarLocked 结束进度条并等待其完成渲染；未启用时什么都不做。
func (p *progressUI) stopBarLocked() {
	if p.container == nil {
		return
	}
	if p.bar != nil {
		p.bar.SetTotal(p.bar.Current(), true)
	}
	p.container.Wait()
	p.container = nil
	p.bar = nil
}

func phaseLabel(name string) string {
	switch name {
	case domain.PhaseMedia:
		return "媒体"
	case domain.PhasePanorama:
		return "全景"
	case domain.PhaseTimelapse:
		return "延时"
	case domain.PhaseCleanup:
		return "清理"
	default:
		return name
	}
}

func fileStatusLabel(status string) string {
	switch status {
	case domain.FileStatusCopied:
		return "COPY"
	case domain.FileStatusPlanned:
		return "PLAN"
	case domain.FileStatusExists:
		return "SKIP"
	case domain.FileStatusFailed:
		return "FAIL"
	default:
		return strings.ToUpper(status)
	}
}

func destOrOff(folder, dest string) string {
	if dest == "" {
		return "off"
	}
	return folder + " -> " + dest
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
