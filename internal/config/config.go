package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/djiimport/internal/datefmt"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultFileName 是工作目录下默认查找的配置文件名（可选）。
	DefaultFileName = "djiimport.yaml"
	// DotEnvFileName 是工作目录下默认读取的 .env 文件名（可选）。
	DotEnvFileName = ".env"

	DefaultMediaFolderName          = "100MEDIA"
	DefaultPanoramaFolderName       = "PANORAMA"
	DefaultTimelapsePhotoFolderName = "HYPERLAPSE"
	DefaultDateFolderFormat         = "yyyy-MM-dd"
)

// 环境变量名（优先级高于配置文件）。
const (
	EnvDefaultSourcePath        = "DJIIMPORT_DEFAULT_SOURCE_PATH"
	EnvDefaultDestinationPath   = "DJIIMPORT_DEFAULT_DESTINATION_PATH"
	EnvMediaFolderName          = "DJIIMPORT_MEDIA_FOLDER_NAME"
	EnvPanoramaFolderName       = "DJIIMPORT_PANORAMA_FOLDER_NAME"
	EnvTimelapsePhotoFolderName = "DJIIMPORT_TIMELAPSE_PHOTO_FOLDER_NAME"
	EnvDateFolderFormat         = "DJIIMPORT_DATE_FOLDER_FORMAT"
)

// FileConfig 对应 djiimport.yaml 的解析结构（键名与 App 设置保持一致）。
type FileConfig struct {
	DefaultSourcePath        string `yaml:"defaultSourcePath"`
	DefaultDestinationPath   string `yaml:"defaultDestinationPath"`
	MediaFolderName          string `yaml:"mediaFolderName"`
	PanoramaFolderName       string `yaml:"panoramaFolderName"`
	TimelapsePhotoFolderName string `yaml:"timelapsePhotoFolderName"`
	DateFolderFormat         string `yaml:"dateFolderFormat"`
}

// Settings 是合并并做最小规范化后的最终配置。
// 每个操作都显式接收它，不再做任何全局查找。
type Settings struct {
	// DefaultSourcePath/DefaultDestinationPath 只用作交互提示的默认值，可以为空。
	DefaultSourcePath      string
	DefaultDestinationPath string

	MediaFolderName          string
	PanoramaFolderName       string
	TimelapsePhotoFolderName string
	DateFolderFormat         string

	// File 是实际读取的配置文件路径；未读取任何文件时为空。
	File string
}

// Defaults 返回内置默认配置。
func Defaults() Settings {
	return Settings{
		MediaFolderName:          DefaultMediaFolderName,
		PanoramaFolderName:       DefaultPanoramaFolderName,
		TimelapsePhotoFolderName: DefaultTimelapsePhotoFolderName,
		DateFolderFormat:         DefaultDateFolderFormat,
	}
}

// PanoramaDefaultDest 是全景目标目录的默认值：<defaultDestinationPath>/<panoramaFolderName>。
func (s Settings) PanoramaDefaultDest() string {
	return joinIfSet(s.DefaultDestinationPath, s.PanoramaFolderName)
}

// TimelapseDefaultDest 是延时目标目录的默认值：<defaultDestinationPath>/<timelapsePhotoFolderName>。
func (s Settings) TimelapseDefaultDest() string {
	return joinIfSet(s.DefaultDestinationPath, s.TimelapsePhotoFolderName)
}

func joinIfSet(base, name string) string {
	if base == "" {
		return ""
	}
	return filepath.Join(base, name)
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load 发现并读取配置，然后与环境变量、内置默认值合并为最终配置。
//
// 发现规则（固定）：
// 1) explicit 非空：读取该文件（必选，不存在即 config_not_found）
// 2) explicit 为空：尝试读取 <cwd>/djiimport.yaml（可选）
// 3) <cwd>/.env 若存在则作为环境变量的补充来源（进程环境变量优先）
//
// 覆盖优先级（固定）：环境变量 > .env > 配置文件 > 内置默认值。
// CLI flag 的覆盖由调用方在 Load 之后完成。
func Load(cwd, explicit string) (Settings, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	dotenvPath := filepath.Join(cwdAbs, DotEnvFileName)
	dotenv, err := readDotEnv(dotenvPath)
	if err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: dotenvPath, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(explicit) != "" {
		cfgPath = absCleanFrom(cwdAbs, explicit)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return Settings{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return Settings{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, DefaultFileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return Settings{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	s := Defaults()
	applyFile(&s, fc)
	applyEnv(&s, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})
	if exists {
		s.File = cfgPath
	}

	s.DefaultSourcePath = absCleanFrom(cwdAbs, os.ExpandEnv(s.DefaultSourcePath))
	s.DefaultDestinationPath = absCleanFrom(cwdAbs, os.ExpandEnv(s.DefaultDestinationPath))

	errPath := cfgPath
	if !exists {
		errPath = "<env>"
	}
	if err := Validate(s); err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: errPath, Err: err}
	}
	return s, nil
}

// Validate 检查目录名与日期格式是否可用。
func Validate(s Settings) error {
	names := []struct {
		key string
		val string
	}{
		{"mediaFolderName", s.MediaFolderName},
		{"panoramaFolderName", s.PanoramaFolderName},
		{"timelapsePhotoFolderName", s.TimelapsePhotoFolderName},
	}
	for _, n := range names {
		if err := validateFolderName(n.val); err != nil {
			return fmt.Errorf("%s %w", n.key, err)
		}
	}
	if err := datefmt.Validate(s.DateFolderFormat); err != nil {
		return fmt.Errorf("dateFolderFormat 无效：%w", err)
	}
	return nil
}

func validateFolderName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("不能为空")
	case name == "." || name == "..":
		return fmt.Errorf("不能是 %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("必须是单层目录名，实际是 %q", name)
	}
	return nil
}

func applyFile(s *Settings, fc FileConfig) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&s.DefaultSourcePath, fc.DefaultSourcePath)
	set(&s.DefaultDestinationPath, fc.DefaultDestinationPath)
	set(&s.MediaFolderName, fc.MediaFolderName)
	set(&s.PanoramaFolderName, fc.PanoramaFolderName)
	set(&s.TimelapsePhotoFolderName, fc.TimelapsePhotoFolderName)
	set(&s.DateFolderFormat, fc.DateFolderFormat)
}

func applyEnv(s *Settings, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&s.DefaultSourcePath, EnvDefaultSourcePath)
	set(&s.DefaultDestinationPath, EnvDefaultDestinationPath)
	set(&s.MediaFolderName, EnvMediaFolderName)
	set(&s.PanoramaFolderName, EnvPanoramaFolderName)
	set(&s.TimelapsePhotoFolderName, EnvTimelapsePhotoFolderName)
	set(&s.DateFolderFormat, EnvDateFolderFormat)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；p 为空时返回空串。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 读取 .env 为 map，不修改进程环境；文件不存在返回空 map。
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}
