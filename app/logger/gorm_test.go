package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObserved(level gormlogger.LogLevel, slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, slow, true), logs
}

func TestGormLoggerTrace(t *testing.T) {
	fc := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("failed query is logged as error", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, 0)
		l.Trace(context.Background(), time.Now(), fc, errors.New("connection refused"))

		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, 0)
		l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("slow query is logged as warning", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, time.Millisecond)
		l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)

		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, 0)
		l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("x"))
		assert.Equal(t, 0, logs.Len())
	})
}

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "verbose", Format: "console"})
	assert.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
