package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMedia_FlatRegularFilesSorted(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "b.mp4"))
	touch(t, filepath.Join(root, "a.jpg"))
	// 子目录及其内容都不属于媒体列表。
	touch(t, filepath.Join(root, "sub", "c.jpg"))

	got, err := ListMedia(root)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a.jpg", got[0].Name)
	assert.Equal(t, "b.mp4", got[1].Name)
	assert.Equal(t, filepath.Join(root, "a.jpg"), got[0].Path)
	assert.True(t, filepath.IsAbs(got[0].Path))
	assert.EqualValues(t, 1, got[0].Size)
}

func TestListMedia_UsesCreationTime(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))

	want := time.Date(2023, 1, 5, 9, 30, 0, 0, time.Local)
	old := creationTimeFunc
	creationTimeFunc = func(string) (time.Time, error) { return want, nil }
	defer func() { creationTimeFunc = old }()

	got, err := ListMedia(root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.Equal(want))
}

func TestListMedia_MissingDir(t *testing.T) {
	_, err := ListMedia(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestCreationTime_ExistingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.jpg")
	touch(t, p)

	ct, err := CreationTime(p)
	require.NoError(t, err)
	assert.False(t, ct.IsZero())
	assert.WithinDuration(t, time.Now(), ct, time.Hour)
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
