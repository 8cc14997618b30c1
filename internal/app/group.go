package app

import (
	"sort"

	"github.com/John-Robertt/djiimport/internal/domain"
)

// GroupByDateFolder 把复制计划按日期子目录分组为 DateGroup（DateGroup 只存计划下标）。
//
// - groups 稳定排序：按 Folder 字典序
// - group 内 PlanIdx 稳定排序：按文件名字典序
func GroupByDateFolder(plans []domain.CopyPlan) []domain.DateGroup {
	index := make(map[string]int, 16)
	groups := make([]domain.DateGroup, 0, 16)

	for i := range plans {
		f := plans[i].DateFolder
		if idx, ok := index[f]; ok {
			groups[idx].PlanIdx = append(groups[idx].PlanIdx, i)
			continue
		}
		index[f] = len(groups)
		groups = append(groups, domain.DateGroup{
			Folder:  f,
			PlanIdx: []int{i},
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Folder < groups[j].Folder })
	for i := range groups {
		sort.Slice(groups[i].PlanIdx, func(a, b int) bool {
			ia := groups[i].PlanIdx[a]
			ib := groups[i].PlanIdx[b]
			return plans[ia].Record.Name < plans[ib].Record.Name
		})
	}
	return groups
}

// PendingCount 统计 group 中规划时尚不存在、需要复制的文件数。
func PendingCount(plans []domain.CopyPlan, g domain.DateGroup) int {
	n := 0
	for _, idx := range g.PlanIdx {
		if !plans[idx].Exists {
			n++
		}
	}
	return n
}
