package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "go-itam/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zapcore"
)

type slowInserter struct {
	mu    sync.Mutex
	delay time.Duration
	docs  []common_models.Log
}

func (s *slowInserter) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, document.(common_models.Log))
	return &mongo.InsertOneResult{}, nil
}

func (s *slowInserter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func TestDBLogWriterCloseWaitsForInserts(t *testing.T) {
	sink := &slowInserter{delay: 20 * time.Millisecond}
	w := newDBLogWriter(sink, "go-itam")

	for i := 0; i < 5; i++ {
		w.AddLog(LogEntry{Level: zapcore.WarnLevel, Message: "slow query", ReportID: "r1"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := sink.count(); n != 5 {
		t.Errorf("inserted = %d, want 5 once Close returns", n)
	}

	select {
	case <-w.stopped:
	default:
		t.Error("worker still running after Close")
	}

	w.AddLog(LogEntry{Message: "after close"})
	if n := sink.count(); n != 5 {
		t.Errorf("inserted = %d after Close, want 5", n)
	}
	if sink.docs[0].AppId != "go-itam" || sink.docs[0].LogLevelId != 30 {
		t.Errorf("record = %+v", sink.docs[0])
	}
}

func TestDBLogWriterCloseHonoursDeadline(t *testing.T) {
	sink := &slowInserter{delay: 200 * time.Millisecond}
	w := newDBLogWriter(sink, "go-itam")
	w.AddLog(LogEntry{Message: "one"})
	w.AddLog(LogEntry{Message: "two"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := w.Close(ctx); err != context.DeadlineExceeded {
		t.Errorf("Close() error = %v, want deadline exceeded", err)
	}
}
