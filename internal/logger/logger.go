package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The loggers are no-ops until Init is called.
var (
	Logger        = zap.NewNop()
	DecoderLogger = zap.NewNop()
	SessionLogger = zap.NewNop()
)

func Init(logLevel zapcore.Level) {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encCfg)

	core := zapcore.NewCore(
		consoleEncoder,
		zapcore.AddSync(os.Stdout),
		logLevel,
	)

	Logger = zap.New(core)

	zap.ReplaceGlobals(Logger)

	DecoderLogger = Logger.With(zap.String("Component", "DECODER"))
	SessionLogger = Logger.With(zap.String("Component", "SESSION"))
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
