package domain

import "time"

// FileRecord 描述一次扫描得到的媒体文件（只做 stat，不读内容）。
//
// 不变量：
// - Path 必须是 clean + absolute，且在扫描时存在
// - 只在一次运行内有效，不做任何持久化
type FileRecord struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Size      int64
}
