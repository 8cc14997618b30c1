package domain

import (
	"time"
)

// 阶段名与执行顺序一致。
const (
	PhaseMedia     = "media"
	PhasePanorama  = "panorama"
	PhaseTimelapse = "timelapse"
	PhaseCleanup   = "cleanup"
)

const (
	StatusDone    = "done"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

const (
	FileStatusPlanned = "planned"
	FileStatusCopied  = "copied"
	FileStatusExists  = "exists"
	FileStatusFailed  = "failed"
)

const (
	ErrCodeSourceMissing  = "source_missing"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeCopyFailed     = "copy_failed"
	ErrCodeDeleteFailed   = "delete_failed"
	ErrCodeInvalidFormat  = "invalid_format"
)

// RunReport 是一次运行的汇总（只用于终端展示，不落盘）。
type RunReport struct {
	Source      string
	Destination string
	DryRun      bool

	StartedAt  time.Time
	FinishedAt time.Time

	Summary ReportSummary
	Phases  []PhaseResult
}

type ReportSummary struct {
	Copied        int
	Skipped       int
	Failed        int
	FoldersCopied int
	Deleted       int
	Bytes         int64
}

// PhaseResult 是单个阶段（media/panorama/timelapse/cleanup）的结果。
type PhaseResult struct {
	Name   string
	Status string
	Src    string
	Dst    string
	Note   string

	Processed     int
	Copied        int
	Skipped       int
	FoldersCopied int
	Deleted       int
	Bytes         int64

	Failures []Failure
}

// Failure 记录单个文件/目录的失败（路径 + 原始错误信息），不会中断所在批次。
type Failure struct {
	Path      string
	ErrorCode string
	ErrorMsg  string
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) 未显式设置状态的阶段：有失败 => partial，否则 done
// 3) summary 由 phases 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for i := range r.Phases {
		p := &r.Phases[i]
		if p.Status == "" {
			if len(p.Failures) > 0 {
				p.Status = StatusPartial
			} else {
				p.Status = StatusDone
			}
		}
		s.Copied += p.Copied
		s.Skipped += p.Skipped
		s.Failed += len(p.Failures)
		s.FoldersCopied += p.FoldersCopied
		s.Deleted += p.Deleted
		s.Bytes += p.Bytes
	}
	r.Summary = s
}

// Phase 按名字查找阶段结果；不存在时返回 false。
func (r RunReport) Phase(name string) (PhaseResult, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// NewFailure 用原始错误构造 Failure；err 为 nil 时 ErrorMsg 为空。
func NewFailure(path, code string, err error) Failure {
	f := Failure{Path: path, ErrorCode: code}
	if err != nil {
		f.ErrorMsg = err.Error()
	}
	return f
}
