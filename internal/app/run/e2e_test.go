package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/djiimport/internal/config"
	"github.com/John-Robertt/djiimport/internal/datefmt"
	"github.com/John-Robertt/djiimport/internal/domain"
	"github.com/John-Robertt/djiimport/internal/scan"
)

type fixture struct {
	src, dst, pano, lapse string
	settings              config.Settings
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		src:      filepath.Join(root, "card"),
		dst:      filepath.Join(root, "photos"),
		pano:     filepath.Join(root, "photos", "Panoramas"),
		lapse:    filepath.Join(root, "photos", "Timelapses"),
		settings: config.Defaults(),
	}
	require.NoError(t, os.MkdirAll(f.dst, 0o755))
	return f
}

func (f fixture) mediaDir() string { return filepath.Join(f.src, f.settings.MediaFolderName) }
func (f fixture) panoSrc() string  { return filepath.Join(f.src, f.settings.PanoramaFolderName) }
func (f fixture) lapseSrc() string { return filepath.Join(f.src, f.settings.TimelapsePhotoFolderName) }

func (f fixture) options(deleteAfter bool) domain.ImportOptions {
	return domain.ImportOptions{
		Source:          f.src,
		Destination:     f.dst,
		PanoramaDest:    f.pano,
		TimelapseDest:   f.lapse,
		DeleteAfterCopy: deleteAfter,
	}
}

func TestExecute_FullImportWithDelete(t *testing.T) {
	f := newFixture(t)
	a := touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.mediaDir(), "b.mp4"), "bb")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "y.jpg"), "y")
	touch(t, filepath.Join(f.panoSrc(), "readme.txt"), "r")
	touch(t, filepath.Join(f.lapseSrc(), "H1", "z.jpg"), "z")

	folder := dateFolder(t, a, f.settings.DateFolderFormat)

	rr := Execute(f.settings, f.options(true), nil)

	media, ok := rr.Phase(domain.PhaseMedia)
	require.True(t, ok)
	assert.Equal(t, domain.StatusDone, media.Status)
	assert.Equal(t, 2, media.Processed)
	assert.Equal(t, 2, media.Copied)
	assert.FileExists(t, filepath.Join(f.dst, folder, "a.jpg"))

	pano, ok := rr.Phase(domain.PhasePanorama)
	require.True(t, ok)
	assert.Equal(t, 1, pano.Processed)
	assert.Equal(t, 1, pano.FoldersCopied)
	assert.FileExists(t, filepath.Join(f.pano, "Pano1", "x.jpg"))
	assert.FileExists(t, filepath.Join(f.pano, "Pano1", "y.jpg"))

	lapse, ok := rr.Phase(domain.PhaseTimelapse)
	require.True(t, ok)
	assert.Equal(t, 1, lapse.FoldersCopied)
	assert.FileExists(t, filepath.Join(f.lapse, "H1", "z.jpg"))

	cl, ok := rr.Phase(domain.PhaseCleanup)
	require.True(t, ok)
	// 2 个媒体文件 + Pano1 + H1。
	assert.Equal(t, 4, cl.Deleted)

	// 媒体目录本身保留且为空。
	entries, err := os.ReadDir(f.mediaDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	// 全景根目录下的散落文件保留。
	assert.NoDirExists(t, filepath.Join(f.panoSrc(), "Pano1"))
	assert.FileExists(t, filepath.Join(f.panoSrc(), "readme.txt"))
	assert.NoDirExists(t, filepath.Join(f.lapseSrc(), "H1"))

	assert.Equal(t, 0, rr.Summary.Failed)
	assert.Equal(t, 2+1+2+1, rr.Summary.Copied)
}

func TestExecute_WithoutDelete_SourcesUntouched(t *testing.T) {
	f := newFixture(t)
	a := touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")

	rr := Execute(f.settings, f.options(false), nil)

	_, ok := rr.Phase(domain.PhaseCleanup)
	assert.False(t, ok, "未要求删除时不应有 cleanup 阶段")
	assert.FileExists(t, a)
	assert.FileExists(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"))
}

func TestExecute_MissingPanoramaSource_PhaseSkipped(t *testing.T) {
	f := newFixture(t)
	touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")

	rr := Execute(f.settings, f.options(true), nil)

	pano, ok := rr.Phase(domain.PhasePanorama)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSkipped, pano.Status)
	assert.NoDirExists(t, f.pano, "源不存在时不应创建全景目标目录")

	media, _ := rr.Phase(domain.PhaseMedia)
	assert.Equal(t, 1, media.Copied)
	assert.Equal(t, 0, rr.Summary.Failed)
}

func TestExecute_MissingMediaFolder_OtherPhasesStillRun(t *testing.T) {
	f := newFixture(t)
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")

	rr := Execute(f.settings, f.options(false), nil)

	media, ok := rr.Phase(domain.PhaseMedia)
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, media.Status)
	require.Len(t, media.Failures, 1)
	assert.Equal(t, domain.ErrCodeSourceMissing, media.Failures[0].ErrorCode)

	pano, _ := rr.Phase(domain.PhasePanorama)
	assert.Equal(t, 1, pano.FoldersCopied)
	assert.FileExists(t, filepath.Join(f.pano, "Pano1", "x.jpg"))
}

func TestExecute_PhasesDisabled(t *testing.T) {
	f := newFixture(t)
	touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")

	opts := f.options(true)
	opts.PanoramaDest = ""
	opts.TimelapseDest = ""

	rr := Execute(f.settings, opts, nil)

	require.Len(t, rr.Phases, 2)
	assert.Equal(t, domain.PhaseMedia, rr.Phases[0].Name)
	assert.Equal(t, domain.PhaseCleanup, rr.Phases[1].Name)
	// 未导入的全景不能被删除。
	assert.FileExists(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"))
}

func TestExecute_DryRun_NoWrites(t *testing.T) {
	f := newFixture(t)
	a := touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")

	opts := f.options(true)
	opts.DryRun = true
	rr := Execute(f.settings, opts, nil)

	assert.True(t, rr.DryRun)
	media, _ := rr.Phase(domain.PhaseMedia)
	assert.Equal(t, 1, media.Copied)

	entries, err := os.ReadDir(f.dst)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry-run 不应写入目标目录")
	assert.FileExists(t, a, "dry-run 不应删除源文件")
	assert.FileExists(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"))
}

// blockedFixture 准备一次必然部分失败的导入：
// 媒体日期目录的位置被文件占用，全景目标中 Pano2 的位置也被文件占用；Pano1 可以正常复制。
func blockedFixture(t *testing.T) (fixture, string) {
	t.Helper()
	f := newFixture(t)
	a := touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.dst, dateFolder(t, a, f.settings.DateFolderFormat)), "blocker")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")
	touch(t, filepath.Join(f.panoSrc(), "Pano2", "y.jpg"), "y")
	touch(t, filepath.Join(f.pano, "Pano2"), "blocker")
	return f, a
}

func TestExecute_DeleteRemovesEverythingEvenAfterFailures(t *testing.T) {
	f, a := blockedFixture(t)

	opts := f.options(true)
	opts.TimelapseDest = ""
	rr := Execute(f.settings, opts, nil)

	media, _ := rr.Phase(domain.PhaseMedia)
	require.Len(t, media.Failures, 1)
	assert.Equal(t, domain.ErrCodeTargetConflict, media.Failures[0].ErrorCode)
	assert.Equal(t, domain.StatusPartial, media.Status)

	pano, _ := rr.Phase(domain.PhasePanorama)
	require.Len(t, pano.Failures, 1)
	assert.Equal(t, 1, pano.FoldersCopied)
	assert.FileExists(t, filepath.Join(f.pano, "Pano1", "x.jpg"))

	// 删除不看复制结果：已扫描的媒体与全景子目录全部删除。
	cl, _ := rr.Phase(domain.PhaseCleanup)
	assert.Equal(t, 3, cl.Deleted)
	assert.Equal(t, 0, cl.Skipped)
	assert.NoFileExists(t, a)
	assert.NoDirExists(t, filepath.Join(f.panoSrc(), "Pano1"))
	assert.NoDirExists(t, filepath.Join(f.panoSrc(), "Pano2"))
	assert.Equal(t, 2, rr.Summary.Failed)
}

func TestExecute_KeepFailedSources(t *testing.T) {
	f, a := blockedFixture(t)

	opts := f.options(true)
	opts.TimelapseDest = ""
	opts.KeepFailedSources = true
	rr := Execute(f.settings, opts, nil)

	cl, ok := rr.Phase(domain.PhaseCleanup)
	require.True(t, ok)
	assert.Equal(t, 0, cl.Deleted)
	// a.jpg + 全景目录树。
	assert.Equal(t, 2, cl.Skipped)
	assert.FileExists(t, a)
	assert.DirExists(t, filepath.Join(f.panoSrc(), "Pano1"))
	assert.DirExists(t, filepath.Join(f.panoSrc(), "Pano2"))
}

func TestExecute_RerunCopiesNothing(t *testing.T) {
	f := newFixture(t)
	touch(t, filepath.Join(f.mediaDir(), "a.jpg"), "a")
	touch(t, filepath.Join(f.panoSrc(), "Pano1", "x.jpg"), "x")

	first := Execute(f.settings, f.options(false), nil)
	require.Equal(t, 0, first.Summary.Failed)

	second := Execute(f.settings, f.options(false), nil)
	assert.Equal(t, 0, second.Summary.Copied)
	assert.Equal(t, 0, second.Summary.FoldersCopied)
	media, _ := second.Phase(domain.PhaseMedia)
	assert.Equal(t, 1, media.Skipped)
}

func dateFolder(t *testing.T, path, format string) string {
	t.Helper()
	ct, err := scan.CreationTime(path)
	require.NoError(t, err)
	folder, err := datefmt.Format(ct, format)
	require.NoError(t, err)
	return folder
}

func touch(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
