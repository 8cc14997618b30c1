package domain

// DateGroup 是按日期子目录聚合后的复制单元。
// 与 planner 输出对齐：只保存计划下标（指向 []CopyPlan），避免复制大结构体。
type DateGroup struct {
	Folder  string
	PlanIdx []int
}
