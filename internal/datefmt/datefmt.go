package datefmt

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PatternError 表示 dateFolderFormat 无法使用（语法错误或生成的目录名非法）。
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("日期目录格式 %q 无效：%s", e.Pattern, e.Reason)
}

// Separator 是 Format 输出中的目录分隔符；模式里的 / 与 \ 都统一成它。
const Separator = "/"

type token struct {
	field byte // 0 表示字面量
	n     int  // 连续出现次数
	lit   string
}

// Format 按自定义日期模式格式化 t，例如 "yyyy-MM-dd" => "2023-01-05"。
//
// 支持的占位符：
//
//	yyyy yy y   年
//	MMMM MMM MM M  月（全称/缩写/两位/不补零）
//	dddd ddd dd d  日（星期全称/星期缩写/两位/不补零）
//	HH H hh h   时（24/12 小时制）
//	mm m ss s   分、秒
//	tt t        AM/PM（A/P）
//
// 'xx' 或 "xx" 内为字面量，\x 转义单个字符，% 前缀被忽略；其余字符原样输出。
// 结果中的 / 或 \ 表示多层目录（例如 "yyyy/MM-dd" => "2023/01-05"），输出统一使用 Separator。
func Format(t time.Time, pattern string) (string, error) {
	toks, err := compile(pattern)
	if err != nil {
		return "", err
	}
	out := strings.ReplaceAll(render(t, toks), `\`, Separator)
	if err := checkName(pattern, out); err != nil {
		return "", err
	}
	return out, nil
}

// Validate 用固定参考时间试格式化一次，确保模式可用于生成目录名。
func Validate(pattern string) error {
	_, err := Format(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), pattern)
	return err
}

func compile(pattern string) ([]token, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, &PatternError{Pattern: pattern, Reason: "不能为空"}
	}

	toks := make([]token, 0, 8)
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case 'y', 'M', 'd', 'H', 'h', 'm', 's', 't':
			j := i
			for j < len(pattern) && pattern[j] == c {
				j++
			}
			flush()
			toks = append(toks, token{field: c, n: j - i})
			i = j
		case '\'', '"':
			end := strings.IndexByte(pattern[i+1:], c)
			if end < 0 {
				return nil, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("引号 %c 未闭合", c)}
			}
			lit.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
		case '\\':
			if i+1 >= len(pattern) {
				return nil, &PatternError{Pattern: pattern, Reason: "末尾存在孤立的转义符"}
			}
			lit.WriteByte(pattern[i+1])
			i += 2
		case '%':
			i++
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return toks, nil
}

func render(t time.Time, toks []token) string {
	var b strings.Builder
	for _, tk := range toks {
		if tk.field == 0 {
			b.WriteString(tk.lit)
			continue
		}
		b.WriteString(field(t, tk.field, tk.n))
	}
	return b.String()
}

func field(t time.Time, f byte, n int) string {
	switch f {
	case 'y':
		switch {
		case n == 1:
			return fmt.Sprintf("%d", t.Year()%100)
		case n == 2:
			return fmt.Sprintf("%02d", t.Year()%100)
		default:
			return fmt.Sprintf("%0*d", n, t.Year())
		}
	case 'M':
		switch {
		case n == 1:
			return fmt.Sprintf("%d", int(t.Month()))
		case n == 2:
			return fmt.Sprintf("%02d", int(t.Month()))
		case n == 3:
			return t.Month().String()[:3]
		default:
			return t.Month().String()
		}
	case 'd':
		switch {
		case n == 1:
			return fmt.Sprintf("%d", t.Day())
		case n == 2:
			return fmt.Sprintf("%02d", t.Day())
		case n == 3:
			return t.Weekday().String()[:3]
		default:
			return t.Weekday().String()
		}
	case 'H':
		return pad(t.Hour(), n)
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, n)
	case 'm':
		return pad(t.Minute(), n)
	case 's':
		return pad(t.Second(), n)
	case 't':
		ampm := "AM"
		if t.Hour() >= 12 {
			ampm = "PM"
		}
		if n == 1 {
			return ampm[:1]
		}
		return ampm
	}
	return ""
}

func pad(v, n int) string {
	if n >= 2 {
		return fmt.Sprintf("%02d", v)
	}
	return fmt.Sprintf("%d", v)
}

// checkName 要求输出是相对路径，且每一层目录名都非空、不是 . 或 ..。
func checkName(pattern, out string) error {
	if strings.TrimSpace(out) == "" {
		return &PatternError{Pattern: pattern, Reason: "生成的目录名为空"}
	}
	if strings.HasPrefix(out, Separator) {
		return &PatternError{Pattern: pattern, Reason: fmt.Sprintf("生成的目录 %q 不能是绝对路径", out)}
	}
	for _, seg := range strings.Split(out, Separator) {
		switch {
		case strings.TrimSpace(seg) == "":
			return &PatternError{Pattern: pattern, Reason: fmt.Sprintf("生成的目录 %q 含有空的目录层级", out)}
		case seg == "." || seg == "..":
			return &PatternError{Pattern: pattern, Reason: fmt.Sprintf("生成的目录 %q 含有非法层级 %q", out, seg)}
		}
	}
	return nil
}

// ToPath 把 Format 的输出转换成当前系统的相对路径。
func ToPath(folder string) string {
	return filepath.FromSlash(folder)
}
