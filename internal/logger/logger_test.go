package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	assert.NotPanics(t, func() { DecoderLogger.Info("before init") })

	Init(zapcore.WarnLevel)
	t.Cleanup(Sync)

	assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, DecoderLogger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, SessionLogger.Core().Enabled(zapcore.ErrorLevel))
}
