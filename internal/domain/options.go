package domain

// ImportOptions 是一次导入的全部用户输入（交互式或 CLI flag 收集），收集完成后不再修改。
//
// PanoramaDest/TimelapseDest 为空表示跳过对应阶段。
type ImportOptions struct {
	Source      string
	Destination string

	PanoramaDest  string
	TimelapseDest string

	DeleteAfterCopy bool
	DryRun          bool

	// KeepFailedSources 只在 DeleteAfterCopy 时生效：复制失败的媒体文件、
	// 以及合并有失败的全景/延时目录树不删除。默认关闭（全部删除，不回滚）。
	KeepFailedSources bool
}

func (o ImportOptions) PanoramaEnabled() bool  { return o.PanoramaDest != "" }
func (o ImportOptions) TimelapseEnabled() bool { return o.TimelapseDest != "" }
