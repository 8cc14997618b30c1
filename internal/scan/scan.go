package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/djherbis/times"

	"github.com/John-Robertt/djiimport/internal/domain"
)

// 通过可替换的函数指针，让测试能稳定地注入创建时间。
var creationTimeFunc = CreationTime

// ListMedia 列出 dir 下直接包含的媒体文件（不递归），并为每个文件取创建时间。
//
// 规则：
// - 只收集普通文件；子目录、符号链接等一律忽略
// - dir 不存在或不可读：返回错误（由上层决定是否跳过该阶段）
// - 输出按文件名稳定排序
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ListMedia(dir string) ([]domain.FileRecord, error) {
	dir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FileRecord, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("读取文件信息失败 %q：%w", path, err)
		}
		created, err := creationTimeFunc(path)
		if err != nil {
			return nil, fmt.Errorf("读取创建时间失败 %q：%w", path, err)
		}

		records = append(records, domain.FileRecord{
			Name:      e.Name(),
			Path:      path,
			CreatedAt: created,
			Size:      info.Size(),
		})
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// CreationTime 返回文件的创建时间（本地时区）。
// 文件系统不提供 birth time 时退化为修改时间：相机写入后通常不会再改动原始文件。
func CreationTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if ts.HasBirthTime() {
		return ts.BirthTime().Local(), nil
	}
	return ts.ModTime().Local(), nil
}
