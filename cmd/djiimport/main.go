package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/djiimport/internal/app/run"
	"github.com/John-Robertt/djiimport/internal/config"
	"github.com/John-Robertt/djiimport/internal/domain"
	"github.com/John-Robertt/djiimport/internal/infra/fsx"
	"github.com/John-Robertt/djiimport/internal/logx"
	"github.com/John-Robertt/djiimport/internal/prompt"
)

// version 可通过 -ldflags "-X main.version=..." 覆盖。
var version = "v0.1.0"

// errHasFailures 表示导入已执行完，但有条目失败；摘要已输出，只需要退出码 1。
var errHasFailures = errors.New("存在失败条目")

// usageError 是参数层面的错误（退出码 2）。
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runCLI 执行命令并返回进程退出码：0 成功，1 有失败或配置错误，2 参数错误。
func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errHasFailures):
		return 1
	}

	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		fmt.Fprint(stderr, root.UsageString())
		return 2
	}
	fmt.Fprintf(stderr, "错误：%v\n", err)
	return 1
}

type importFlags struct {
	source        string
	dest          string
	panoramaDest  string
	timelapseDest string
	noPanorama    bool
	noTimelapse   bool
	deleteAfter   bool
	keepFailed    bool
	yes           bool
	dryRun        bool
	configPath    string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	f := &importFlags{}

	root := &cobra.Command{
		Use:   "djiimport",
		Short: "把无人机/相机存储卡中的媒体按日期导入到目标目录",
		Long: `把无人机/相机存储卡中的媒体导入到目标目录：
- 媒体目录中的文件按创建日期放入 <目标>/<日期目录>/，同名文件跳过
- 全景与延时目录整体合并到各自的目标目录，已存在的子目录跳过
- 可选：全部阶段结束后删除源文件（复制失败的不会删除）

未通过参数给出的选项会逐项交互询问；--yes 直接接受默认值。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, f)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.PersistentFlags().StringVar(&f.configPath, "config", "", "配置文件路径（默认读取当前目录的 "+config.DefaultFileName+"）")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "V", false, "输出调试日志")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "执行一次导入（与不带子命令运行相同）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, f)
		},
	}
	bindImportFlags(root, f)
	bindImportFlags(importCmd, f)

	root.AddCommand(importCmd, newVersionCmd())
	return root
}

func bindImportFlags(cmd *cobra.Command, f *importFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.source, "source", "s", "", "源目录（存储卡根目录）")
	fl.StringVarP(&f.dest, "dest", "d", "", "媒体目标目录")
	fl.StringVar(&f.panoramaDest, "panorama-dest", "", "全景目标目录")
	fl.StringVar(&f.timelapseDest, "timelapse-dest", "", "延时目标目录")
	fl.BoolVar(&f.noPanorama, "no-panorama", false, "不导入全景")
	fl.BoolVar(&f.noTimelapse, "no-timelapse", false, "不导入延时")
	fl.BoolVar(&f.deleteAfter, "delete", false, "导入后删除源文件")
	fl.BoolVar(&f.keepFailed, "keep-failed", false, "与 --delete 同用：复制失败的源文件/目录树不删除")
	fl.BoolVarP(&f.yes, "yes", "y", false, "不询问，未给出的选项使用默认值")
	fl.BoolVar(&f.dryRun, "dry-run", false, "只规划并输出结果，不写入也不删除")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func runImport(cmd *cobra.Command, f *importFlags) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}
	s, err := config.Load(cwd, f.configPath)
	if err != nil {
		return err
	}

	log, err := logx.New(f.verbose)
	if err != nil {
		return fmt.Errorf("初始化日志失败：%w", err)
	}
	defer func() { _ = log.Sync() }()
	if s.File != "" {
		log.Debug("config loaded", zap.String("path", s.File))
	}

	fmt.Fprintln(out, "DJI 媒体导入")
	fmt.Fprintln(out)

	opts, err := resolveOptions(s, f, prompt.New(cmd.InOrStdin(), out))
	if err != nil {
		return err
	}

	obs := newProgressUI(out, isTerminal(out))
	rr := run.ExecuteWithObserver(s, opts, log, obs)

	emitReport(out, errOut, rr)
	if rr.Summary.Failed > 0 {
		return errHasFailures
	}
	return nil
}

// resolveOptions 按“参数 > 交互回答/默认值”收集一次导入的全部选项。
func resolveOptions(s config.Settings, f *importFlags, p *prompt.Prompter) (domain.ImportOptions, error) {
	var (
		opts domain.ImportOptions
		err  error
	)
	opts.DryRun = f.dryRun
	opts.KeepFailedSources = f.keepFailed

	opts.Source, err = resolveFolder(f.source, s.DefaultSourcePath, "源目录", "--source", f.yes, p)
	if err != nil {
		return opts, err
	}
	opts.Destination, err = resolveFolder(f.dest, s.DefaultDestinationPath, "目标目录", "--dest", f.yes, p)
	if err != nil {
		return opts, err
	}

	opts.PanoramaDest, err = resolveMergeDest(f.noPanorama, f.panoramaDest,
		defaultMergeDest(s.PanoramaDefaultDest(), opts.Destination, s.PanoramaFolderName),
		"全景", f.yes, p)
	if err != nil {
		return opts, err
	}
	opts.TimelapseDest, err = resolveMergeDest(f.noTimelapse, f.timelapseDest,
		defaultMergeDest(s.TimelapseDefaultDest(), opts.Destination, s.TimelapsePhotoFolderName),
		"延时", f.yes, p)
	if err != nil {
		return opts, err
	}

	switch {
	case f.deleteAfter:
		opts.DeleteAfterCopy = true
	case f.yes:
		opts.DeleteAfterCopy = false
	default:
		opts.DeleteAfterCopy, err = p.AskYesNo(fmt.Sprintf("导入完成后删除 %s 中的源文件", opts.Source), false)
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func resolveFolder(flagVal, def, label, flagName string, yes bool, p *prompt.Prompter) (string, error) {
	var dir string
	switch {
	case strings.TrimSpace(flagVal) != "":
		dir = flagVal
	case yes:
		if def == "" {
			return "", usageError{err: fmt.Errorf("%s 未配置默认值，--yes 模式下必须通过 %s 指定", label, flagName)}
		}
		dir = def
	default:
		got, err := p.AskFolder("请输入"+label, def)
		if err != nil {
			return "", err
		}
		dir = got
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%s 无效：%w", label, err)
	}
	if !fsx.DirExists(abs) {
		return "", fmt.Errorf("%s 不存在或不是目录：%s", label, abs)
	}
	return abs, nil
}

// resolveMergeDest 返回全景/延时的目标目录；空串表示该阶段不执行。
// 目标目录不存在时由合并阶段创建，因此参数与 --yes 的值不要求已存在。
func resolveMergeDest(disabled bool, flagVal, def, label string, yes bool, p *prompt.Prompter) (string, error) {
	switch {
	case disabled:
		return "", nil
	case strings.TrimSpace(flagVal) != "":
		return filepath.Abs(flagVal)
	case yes:
		return def, nil
	}

	ok, err := p.AskYesNo(fmt.Sprintf("导入%s到 %s", label, def), true)
	if err != nil || !ok {
		return "", err
	}
	dir, err := p.AskFolder("请输入"+label+"目标目录", def)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

func defaultMergeDest(configured, dest, folderName string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(dest, folderName)
}

func emitReport(out, errOut io.Writer, rr domain.RunReport) {
	mode := ""
	if rr.DryRun {
		mode = "（dry-run，未写入）"
	}
	fmt.Fprintf(out, "完成%s：copied=%d folders_copied=%d skipped=%d failed=%d deleted=%d size=%s\n",
		mode,
		rr.Summary.Copied,
		rr.Summary.FoldersCopied,
		rr.Summary.Skipped,
		rr.Summary.Failed,
		rr.Summary.Deleted,
		humanize.IBytes(uint64(rr.Summary.Bytes)),
	)
	for _, ph := range rr.Phases {
		for _, f := range ph.Failures {
			fmt.Fprintf(errOut, "[%s] %s %s: %s\n", ph.Name, f.Path, f.ErrorCode, f.ErrorMsg)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
