package domain

// CopyPlan 规划一次媒体文件复制（只描述 src/dst；真正执行时仍会再次检查目标是否存在）。
type CopyPlan struct {
	Record FileRecord

	DateFolder string // 按 dateFolderFormat 格式化后的子目录名
	DstDir     string
	DstPath    string

	// Exists 表示规划时目标已存在同名条目（执行时直接跳过）。
	Exists bool
}
