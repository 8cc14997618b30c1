package run

import (
	"time"

	"github.com/John-Robertt/djiimport/internal/config"
	"github.com/John-Robertt/djiimport/internal/domain"
)

// Observer 用于把“运行进度/阶段/文件结果”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何终端输出；所有事件都在调用 Execute 的 goroutine 上顺序发出。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(s config.Settings, opts domain.ImportOptions)
	// OnPhaseDone 在 media 阶段内部的 scan/plan 步骤结束时调用（用于打印统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFileDone 在每个媒体文件处理完成时调用。
	OnFileDone(idx, total int, p domain.CopyPlan, status string)
	// OnPhaseResult 在 media/panorama/timelapse/cleanup 每个阶段结束时调用。
	OnPhaseResult(res domain.PhaseResult, dur time.Duration)
}
