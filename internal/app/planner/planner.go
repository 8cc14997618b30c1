package planner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/djiimport/internal/datefmt"
	"github.com/John-Robertt/djiimport/internal/domain"
)

// ReadDestState 读取 <dstRoot>/<folder>/ 的现状（只做 ReadDir，不读文件内容）。
// folder 是 datefmt.Format 的输出，可以包含多层目录。
// 若目录不存在，返回空状态且不报错。
//
// ExistingNames 只收录普通文件：同名的目录/符号链接交给复制阶段报告 target_conflict。
func ReadDestState(dstRoot, folder string) (domain.DestState, error) {
	dir := filepath.Join(dstRoot, datefmt.ToPath(folder))
	st := domain.DestState{
		Dir:           dir,
		ExistingNames: map[string]struct{}{},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return domain.DestState{}, err
	}

	st.Exists = true
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		st.ExistingNames[e.Name()] = struct{}{}
	}
	return st, nil
}

// PlanMedia 为每个媒体文件生成确定性的复制计划（不做任何写入）。
//
// 目标路径固定为 <dstRoot>/<Format(CreatedAt, dateFormat)>/<Name>。
// 只有 dateFormat 本身不可用时返回错误；单个日期目录无法读取时，
// 计划照常生成，由执行阶段逐文件报告失败。
func PlanMedia(records []domain.FileRecord, dstRoot, dateFormat string) ([]domain.CopyPlan, error) {
	if err := datefmt.Validate(dateFormat); err != nil {
		return nil, err
	}

	states := make(map[string]domain.DestState, 8)
	plans := make([]domain.CopyPlan, 0, len(records))
	for _, rec := range records {
		folder, err := datefmt.Format(rec.CreatedAt, dateFormat)
		if err != nil {
			return nil, err
		}

		st, ok := states[folder]
		if !ok {
			st, err = ReadDestState(dstRoot, folder)
			if err != nil {
				st = domain.DestState{Dir: filepath.Join(dstRoot, datefmt.ToPath(folder)), ExistingNames: map[string]struct{}{}}
			}
			states[folder] = st
		}

		_, exists := st.ExistingNames[rec.Name]
		plans = append(plans, domain.CopyPlan{
			Record:     rec,
			DateFolder: folder,
			DstDir:     st.Dir,
			DstPath:    filepath.Join(st.Dir, rec.Name),
			Exists:     exists,
		})
	}
	return plans, nil
}

// SortPlans 让上层在需要时可显式保证稳定顺序：先按日期目录，再按文件名。
func SortPlans(plans []domain.CopyPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].DateFolder != plans[j].DateFolder {
			return plans[i].DateFolder < plans[j].DateFolder
		}
		return plans[i].Record.Name < plans[j].Record.Name
	})
}
