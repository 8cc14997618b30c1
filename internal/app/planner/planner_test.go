package planner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/djiimport/internal/datefmt"
	"github.com/John-Robertt/djiimport/internal/domain"
)

func TestReadDestState_MissingDir(t *testing.T) {
	root := t.TempDir()

	st, err := ReadDestState(root, "2023-01-05")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if st.Exists || len(st.ExistingNames) != 0 {
		t.Fatalf("目录不存在时应为空状态：%+v", st)
	}
	if st.Dir != filepath.Join(root, "2023-01-05") {
		t.Fatalf("Dir 不正确：%q", st.Dir)
	}
}

func TestPlanMedia_DateFolderAndExisting(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst")

	// 2023-01-05 下已有 b.jpg。
	write(t, filepath.Join(dst, "2023-01-05", "b.jpg"))

	day := time.Date(2023, 1, 5, 12, 0, 0, 0, time.Local)
	records := []domain.FileRecord{
		{Name: "a.jpg", Path: filepath.Join(root, "src", "a.jpg"), CreatedAt: day},
		{Name: "b.jpg", Path: filepath.Join(root, "src", "b.jpg"), CreatedAt: day},
		{Name: "c.mp4", Path: filepath.Join(root, "src", "c.mp4"), CreatedAt: day.AddDate(0, 0, 1)},
	}

	plans, err := PlanMedia(records, dst, "yyyy-MM-dd")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("期望 3 个计划，实际 %d", len(plans))
	}

	if plans[0].DstPath != filepath.Join(dst, "2023-01-05", "a.jpg") || plans[0].Exists {
		t.Fatalf("a.jpg 计划不正确：%+v", plans[0])
	}
	if !plans[1].Exists {
		t.Fatalf("b.jpg 应标记为已存在：%+v", plans[1])
	}
	if plans[2].DateFolder != "2023-01-06" || plans[2].Exists {
		t.Fatalf("c.mp4 计划不正确：%+v", plans[2])
	}
}

func TestPlanMedia_NestedDateFolders(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst")
	write(t, filepath.Join(dst, "2023", "01-05", "b.jpg"))

	day := time.Date(2023, 1, 5, 12, 0, 0, 0, time.Local)
	records := []domain.FileRecord{
		{Name: "a.jpg", Path: filepath.Join(root, "src", "a.jpg"), CreatedAt: day},
		{Name: "b.jpg", Path: filepath.Join(root, "src", "b.jpg"), CreatedAt: day},
	}

	plans, err := PlanMedia(records, dst, "yyyy/MM-dd")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if plans[0].DateFolder != "2023/01-05" {
		t.Fatalf("DateFolder 不正确：%q", plans[0].DateFolder)
	}
	if plans[0].DstPath != filepath.Join(dst, "2023", "01-05", "a.jpg") || plans[0].Exists {
		t.Fatalf("a.jpg 计划不正确：%+v", plans[0])
	}
	if !plans[1].Exists {
		t.Fatalf("多层日期目录下已有的 b.jpg 应标记为已存在：%+v", plans[1])
	}
}

func TestReadDestState_DirectoriesNotCountedAsExisting(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "2023-01-05", "b.jpg"))
	if err := os.MkdirAll(filepath.Join(root, "2023-01-05", "a.jpg"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	st, err := ReadDestState(root, "2023-01-05")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := st.ExistingNames["a.jpg"]; ok {
		t.Fatalf("同名目录不应计入 ExistingNames：%+v", st.ExistingNames)
	}
	if _, ok := st.ExistingNames["b.jpg"]; !ok {
		t.Fatalf("b.jpg 应计入 ExistingNames：%+v", st.ExistingNames)
	}
}

func TestPlanMedia_InvalidFormat(t *testing.T) {
	records := []domain.FileRecord{{Name: "a.jpg", CreatedAt: time.Now()}}

	_, err := PlanMedia(records, t.TempDir(), "yyyy//MM")
	var pe *datefmt.PatternError
	if !errors.As(err, &pe) {
		t.Fatalf("期望 *datefmt.PatternError，实际：%v", err)
	}
}

func TestSortPlans_ByFolderThenName(t *testing.T) {
	plans := []domain.CopyPlan{
		{DateFolder: "2023-01-06", Record: domain.FileRecord{Name: "a.jpg"}},
		{DateFolder: "2023-01-05", Record: domain.FileRecord{Name: "b.jpg"}},
		{DateFolder: "2023-01-05", Record: domain.FileRecord{Name: "a.jpg"}},
	}
	SortPlans(plans)

	got := []string{
		plans[0].DateFolder + "/" + plans[0].Record.Name,
		plans[1].DateFolder + "/" + plans[1].Record.Name,
		plans[2].DateFolder + "/" + plans[2].Record.Name,
	}
	want := []string{"2023-01-05/a.jpg", "2023-01-05/b.jpg", "2023-01-06/a.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("排序不正确：got=%v want=%v", got, want)
		}
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
