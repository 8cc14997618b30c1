package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建 CLI 使用的控制台 logger，输出到 stderr（stdout 留给面向用户的摘要）。
// verbose 时启用 debug 级别与彩色级别名。
func New(verbose bool) (*zap.Logger, error) {
	var config zap.Config

	if verbose {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.DisableCaller = true
		config.DisableStacktrace = true
		config.Sampling = nil
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// OrNop 在 l 为 nil 时返回 no-op logger。
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
