// Package prompt 实现交互式问答：目录输入（校验存在后才接受）与 Y/N 确认。
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/djiimport/internal/infra/fsx"
)

// ErrAborted 表示输入流在得到有效回答之前已结束（例如 stdin 被关闭）。
var ErrAborted = errors.New("输入已结束，导入取消")

// Prompter 从 r 读取回答，把提示写到 w。
type Prompter struct {
	r *bufio.Reader
	w io.Writer

	// dirExists 可在测试中替换。
	dirExists func(string) bool
}

func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		r:         bufio.NewReader(r),
		w:         w,
		dirExists: fsx.DirExists,
	}
}

// Ask 打印提示并读取一行；空输入返回 def。
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.w, "%s（默认 '%s'）：", label, def)
	} else {
		fmt.Fprintf(p.w, "%s：", label)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskFolder 反复询问，直到得到一个已存在的目录。
func (p *Prompter) AskFolder(label, def string) (string, error) {
	for {
		dir, err := p.Ask(label, def)
		if err != nil {
			return "", err
		}
		if dir != "" && p.dirExists(dir) {
			return dir, nil
		}
		if dir == "" {
			fmt.Fprintln(p.w, "目录不能为空")
		} else {
			fmt.Fprintf(p.w, "目录不存在：%s\n", dir)
		}
	}
}

// AskYesNo 询问 Y/N。空输入返回 def；y/yes（不区分大小写）为是，其余任何输入为否。
func (p *Prompter) AskYesNo(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.w, "%s（%s）？", label, hint)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// readLine 读取一行并去掉首尾空白。
// 最后一行没有换行符也照常返回；流已结束且无内容时返回 ErrAborted。
func (p *Prompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("读取输入失败：%w", err)
		}
		if line == "" {
			fmt.Fprintln(p.w)
			return "", ErrAborted
		}
	}
	return strings.TrimSpace(line), nil
}
