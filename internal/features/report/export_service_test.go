package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/config"
	"go-itam/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockFileRepo struct {
	mu    sync.Mutex
	files map[primitive.ObjectID]ReportFile
}

func newMockFileRepo() *mockFileRepo {
	return &mockFileRepo{files: map[primitive.ObjectID]ReportFile{}}
}

func (m *mockFileRepo) Create(ctx context.Context, file *ReportFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	m.files[file.ID] = *file
	return nil
}

func (m *mockFileRepo) Get(ctx context.Context, id string) (*ReportFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFoundError{Resource: "report file"}
	}
	f, ok := m.files[oid]
	if !ok {
		return nil, errs.NotFoundError{Resource: "report file"}
	}
	return &f, nil
}

func (m *mockFileRepo) ListByUser(ctx context.Context, userID string, now time.Time) ([]ReportFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ReportFile{}
	for _, f := range m.files {
		if f.ExpiresAt.After(now) && (userID == "" || f.GeneratedBy == userID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFileRepo) ListExpired(ctx context.Context, now time.Time) ([]ReportFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ReportFile{}
	for _, f := range m.files {
		if !f.ExpiresAt.After(now) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFileRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

func (m *mockFileRepo) EnsureIndexes(ctx context.Context) error { return nil }

type sentNotification struct {
	userID, title, message, link string
	kind                         notification.NotificationType
}

type mockNotifier struct {
	sent chan sentNotification
}

func (m *mockNotifier) Notify(ctx context.Context, userID, title, message string, notifType notification.NotificationType, link string) error {
	m.sent <- sentNotification{userID: userID, title: title, message: message, link: link, kind: notifType}
	return nil
}

func (m *mockNotifier) GetUserNotifications(ctx context.Context, userID string, page, limit int64) ([]notification.Notification, int64, error) {
	return nil, 0, nil
}

func (m *mockNotifier) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (m *mockNotifier) MarkAsRead(ctx context.Context, id string, userID string) error { return nil }

func (m *mockNotifier) MarkAllAsRead(ctx context.Context, userID string) error { return nil }

type exportFixture struct {
	*fixture
	files    *mockFileRepo
	notifier *mockNotifier
	exports  *ExportServiceImpl
	dir      string
	report   *ReportDefinition
}

func newExportFixture(t *testing.T, rows int) *exportFixture {
	t.Helper()
	f := newFixture(t, rows, config.ReportConfig{ExportChunk: 2, MaxExportRows: 100})
	dir := filepath.Join(t.TempDir(), "exports")

	cfg := &config.Config{Export: config.ExportConfig{Path: dir, TTL: time.Hour, Workers: 1}}
	files := newMockFileRepo()
	notifier := &mockNotifier{sent: make(chan sentNotification, 4)}
	exports := NewExportService(cfg, f.reports, f.data, files, f.audit, notifier, zap.NewNop())

	def := maintenanceReport()
	if err := f.reports.CreateReport(context.Background(), def, owner); err != nil {
		t.Fatal(err)
	}
	return &exportFixture{fixture: f, files: files, notifier: notifier, exports: exports, dir: dir, report: def}
}

func TestWriteToCSV(t *testing.T) {
	f := newExportFixture(t, 3)

	var buf bytes.Buffer
	n, err := f.exports.WriteTo(context.Background(), f.report.ID.Hex(), ExportRequest{Format: "csv"}, owner, &buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != 3 {
		t.Errorf("rows = %d, want 3", n)
	}
	want := "id,title,cost\n" +
		"1,Battery swap,\"1,250.00\"\n" +
		"2,Battery swap,\"1,251.00\"\n" +
		"3,Battery swap,\"1,252.00\"\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestGenerateStoresFile(t *testing.T) {
	f := newExportFixture(t, 5)
	ctx := context.Background()

	file, err := f.exports.Generate(ctx, f.report.ID.Hex(), ExportRequest{Format: "xlsx"}, owner)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if file.RowCount != 5 || file.Format != "xlsx" || file.GeneratedBy != "u1" {
		t.Errorf("file = %+v", file)
	}
	if !strings.HasPrefix(file.FileName, "maintenance-costs_") || !strings.HasSuffix(file.FileName, ".xlsx") {
		t.Errorf("file name = %q", file.FileName)
	}
	info, err := os.Stat(file.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != file.Size || file.Size == 0 {
		t.Errorf("size = %d, stat = %d", file.Size, info.Size())
	}

	got, err := f.exports.Download(ctx, file.ID.Hex(), owner)
	if err != nil || got.ID != file.ID {
		t.Errorf("owner Download() = %v, %v", got, err)
	}
	if _, err := f.exports.Download(ctx, file.ID.Hex(), stranger); !errs.IsNotFound(err) {
		t.Errorf("stranger Download(private) err = %v, want not found", err)
	}

	files, err := f.exports.ListFiles(ctx, owner)
	if err != nil || len(files) != 1 {
		t.Errorf("ListFiles() = %v, %v", files, err)
	}
}

func TestGenerateRemovesPartialFile(t *testing.T) {
	f := newExportFixture(t, 5)
	f.spy.err = os.ErrDeadlineExceeded

	_, err := f.exports.Generate(context.Background(), f.report.ID.Hex(), ExportRequest{Format: "csv"}, owner)
	if !errs.IsQueryExecution(err) {
		t.Fatalf("err = %v, want QueryExecutionError", err)
	}
	entries, _ := os.ReadDir(f.dir)
	if len(entries) != 0 {
		t.Errorf("export dir has %d entries, want 0", len(entries))
	}
	if len(f.files.files) != 0 {
		t.Error("failed export was recorded")
	}
}

func TestGenerateRejectsBadFormat(t *testing.T) {
	f := newExportFixture(t, 1)

	_, err := f.exports.Generate(context.Background(), f.report.ID.Hex(), ExportRequest{Format: "docx"}, owner)
	if !errs.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestQueueNotifiesOnCompletion(t *testing.T) {
	f := newExportFixture(t, 3)
	f.exports.Start()
	defer f.exports.Stop(context.Background())

	jobID, err := f.exports.Queue(context.Background(), f.report.ID.Hex(), ExportRequest{Format: "pdf"}, owner)
	if err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if jobID == "" {
		t.Error("empty job id")
	}

	select {
	case n := <-f.notifier.sent:
		if n.userID != "u1" || n.kind != notification.NotificationTypeSuccess {
			t.Errorf("notification = %+v", n)
		}
		if !strings.HasPrefix(n.link, "/api/reports/files/") || !strings.HasSuffix(n.link, "/download") {
			t.Errorf("link = %q", n.link)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification")
	}
}

func TestQueueRejectsInaccessibleReport(t *testing.T) {
	f := newExportFixture(t, 1)

	if _, err := f.exports.Queue(context.Background(), f.report.ID.Hex(), ExportRequest{}, stranger); !errs.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCleanupExpired(t *testing.T) {
	f := newExportFixture(t, 2)
	ctx := context.Background()

	file, err := f.exports.Generate(ctx, f.report.ID.Hex(), ExportRequest{Format: "csv"}, owner)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := f.exports.CleanupExpired(ctx); err != nil || n != 0 {
		t.Fatalf("CleanupExpired() before expiry = %d, %v", n, err)
	}

	f.exports.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err := f.exports.CleanupExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if _, err := os.Stat(file.FilePath); !os.IsNotExist(err) {
		t.Errorf("file still on disk: %v", err)
	}
	if _, err := f.exports.Download(ctx, file.ID.Hex(), owner); !errs.IsNotFound(err) {
		t.Errorf("Download() after cleanup err = %v", err)
	}
}
