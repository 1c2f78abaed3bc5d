package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "go-itam/internal/common/models"
	"go-itam/internal/config"
	"go-itam/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level    zapcore.Level
	Message  string
	ReportID string
	UserID   string
	Caller   string // Function name
}

// logInserter is the part of *mongo.Collection the writer needs.
type logInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	collection logInserter
	logChan    chan LogEntry
	appId      string
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	return newDBLogWriter(mongodb.DB.Collection("logs"), cfg.AppId)
}

func newDBLogWriter(collection logInserter, appId string) *DBLogWriter {
	writer := &DBLogWriter{
		collection: collection,
		logChan:    make(chan LogEntry, 1000), // Buffer 1000 logs
		appId:      appId,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	// Start the background worker immediately
	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case <-w.done:
		return
	default:
	}

	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop the log rather than block the request
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close stops accepting entries and waits until the worker has written the
// buffered ones and returned, or ctx expires.
func (w *DBLogWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.done) })
	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *DBLogWriter) processLogs() {
	defer close(w.stopped)
	for {
		select {
		case entry := <-w.logChan:
			w.insert(entry)
		case <-w.done:
			for {
				select {
				case entry := <-w.logChan:
					w.insert(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *DBLogWriter) insert(entry LogEntry) {
	logRecord := common_models.Log{
		Message:      entry.Message,
		Caller:       entry.Caller,
		ReportID:     entry.ReportID,
		UserID:       entry.UserID,
		LogLevelId:   mapLevelToInt(entry.Level),
		AppId:        w.appId,
		CreatedOnUtc: time.Now().UTC(),
	}

	// Errors are ignored to keep the app running
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	w.collection.InsertOne(ctx, logRecord)
	cancel()
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
