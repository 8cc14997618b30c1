package domain

// DestState 描述 <dst>/<日期目录>/ 的现状（只做 stat/ReadDir，不读内容）。
type DestState struct {
	Dir    string
	Exists bool

	// ExistingNames 是目录内现有条目名集合，用于 O(1) 冲突判定。
	ExistingNames map[string]struct{}
}
