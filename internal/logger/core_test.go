package logger

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *captureSink) AddLog(e LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func TestDBCoreMirrorsEntries(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	sink := &captureSink{}
	log := zap.New(NewDBCore(obs, sink)).Named("report")

	log.With(zap.String("report_id", "r1")).Warn("slow query", zap.String("user_id", "u1"))
	log.Debug("below level")

	if logs.Len() != 1 {
		t.Fatalf("console entries = %d, want 1", logs.Len())
	}
	if len(sink.entries) != 1 {
		t.Fatalf("sink entries = %d, want 1", len(sink.entries))
	}
	got := sink.entries[0]
	if got.ReportID != "r1" || got.UserID != "u1" {
		t.Errorf("entry ids = %q/%q, want r1/u1", got.ReportID, got.UserID)
	}
	if got.Message != "report: slow query" || got.Level != zapcore.WarnLevel {
		t.Errorf("entry = %+v", got)
	}
}

func TestMapLevelToInt(t *testing.T) {
	if mapLevelToInt(zapcore.ErrorLevel) != 40 || mapLevelToInt(zapcore.DPanicLevel) != 20 {
		t.Error("unexpected level mapping")
	}
}
