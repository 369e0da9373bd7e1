package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/queue"
)

// fakeBlobs 内存对象存储.
type fakeBlobs struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete error
	deleted    []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) StoreBlob(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if int64(len(b)) != size {
		return fmt.Errorf("short body: %d != %d", len(b), size)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = b

	return nil
}

func (f *fakeBlobs) DeleteBlob(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete != nil {
		return f.failDelete
	}

	delete(f.objects, key)
	f.deleted = append(f.deleted, key)

	return nil
}

func (f *fakeBlobs) BlobURL(_ context.Context, key, filename string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("http://blobs.local/%s?name=%s&ttl=%d", key, filename, int(expiry.Seconds())), nil
}

func (f *fakeBlobs) setFailDelete(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failDelete = err
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

// clock 可调的时间来源.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	client, err := db.New(context.Background(), configs.DBConfig{
		Type:         configs.SQLite,
		Database:     filepath.Join(t.TempDir(), "vault"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	if err := model.AutoMigrate(client.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return client.DB
}

type fixture struct {
	svc   *service.FileService
	db    *gorm.DB
	blobs *fakeBlobs
	clock *clock
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	f := &fixture{
		db:    newTestDB(t),
		blobs: newFakeBlobs(),
		clock: &clock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
	}

	opts = append([]service.Option{
		service.WithClock(f.clock.Now),
		service.WithURLExpiry(10 * time.Minute),
	}, opts...)
	f.svc = service.New(f.db, f.blobs, opts...)

	return f
}

func (f *fixture) upload(t *testing.T, name, contentType, body string) string {
	t.Helper()

	resp, err := f.svc.Upload(context.Background(), name, contentType, int64(len(body)), strings.NewReader(body))
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}

	return resp.ID
}

func (f *fixture) contents(t *testing.T) []model.FileContent {
	t.Helper()

	var out []model.FileContent
	if err := f.db.Order("created_at").Find(&out).Error; err != nil {
		t.Fatal(err)
	}

	return out
}

func TestUpload_Deduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, "a.txt", "text/plain", 5, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	if first.UploadDetails.WasDeduplicated || first.UploadDetails.StorageSaved != 0 || first.IsDuplicate {
		t.Errorf("first upload = %+v", first)
	}

	// 不可 Seek 的输入走临时文件
	second, err := f.svc.Upload(ctx, "b.txt", "text/plain", -1, io.MultiReader(strings.NewReader("hello")))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	d := second.UploadDetails
	if !d.WasDeduplicated || d.StorageSaved != 5 {
		t.Errorf("second upload details = %+v", d)
	}

	// sha256("hello")
	if d.ContentHash != "2cf24dba..." {
		t.Errorf("content hash = %q", d.ContentHash)
	}

	if !second.IsDuplicate || second.StorageSaved != 5 || second.FormattedSize != "5.00 B" {
		t.Errorf("second view = %+v", second.FileView)
	}

	if f.blobs.count() != 1 {
		t.Errorf("blobs = %d, want 1", f.blobs.count())
	}

	contents := f.contents(t)
	if len(contents) != 1 || contents[0].ReferenceCount != 2 {
		t.Fatalf("contents = %+v", contents)
	}

	got, err := f.svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}

	if !got.IsDuplicate || got.FileURL != "/api/v1/files/"+first.ID+"/download" {
		t.Errorf("get = %+v", got)
	}
}

func TestUpload_Rejects(t *testing.T) {
	f := newFixture(t, service.WithUploadConfig(configs.UploadConfig{MaxSize: 4, ObjectDir: "uploads"}))
	ctx := context.Background()

	cases := []struct {
		name string
		size int64
		r    io.Reader
		want error
	}{
		{"declared size", 10, strings.NewReader("hi"), service.ErrFileTooLarge},
		{"actual size", -1, strings.NewReader("hello"), service.ErrFileTooLarge},
		{"actual size unseekable", -1, io.MultiReader(strings.NewReader("hello")), service.ErrFileTooLarge},
		{"empty", 0, strings.NewReader(""), service.ErrEmptyFile},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Upload(ctx, "x.bin", "", tc.size, tc.r); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if f.blobs.count() != 0 || len(f.contents(t)) != 0 {
		t.Fatal("rejected uploads must not store anything")
	}
}

func TestUpload_DefaultFileTypeAndKey(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Upload(context.Background(), "Photo.JPG", "", 3, strings.NewReader("jpg"))
	if err != nil {
		t.Fatal(err)
	}

	if resp.FileType != service.DefaultFileType {
		t.Errorf("file type = %q", resp.FileType)
	}

	c := f.contents(t)[0]
	if !strings.HasPrefix(c.ObjectKey, "uploads/") || !strings.HasSuffix(c.ObjectKey, ".jpg") {
		t.Errorf("object key = %q", c.ObjectKey)
	}
}

func TestDelete_ReleasesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "a.txt", "text/plain", "same")
	b := f.upload(t, "b.txt", "text/plain", "same")

	if err := f.svc.Delete(ctx, a); err != nil {
		t.Fatalf("delete a: %v", err)
	}

	if f.blobs.count() != 1 {
		t.Fatal("blob removed while still referenced")
	}

	if c := f.contents(t); len(c) != 1 || c[0].ReferenceCount != 1 {
		t.Fatalf("contents after first delete = %+v", c)
	}

	view, err := f.svc.Get(ctx, b)
	if err != nil || view.IsDuplicate {
		t.Fatalf("remaining file = %+v, %v", view, err)
	}

	if err := f.svc.Delete(ctx, b); err != nil {
		t.Fatalf("delete b: %v", err)
	}

	if f.blobs.count() != 0 || len(f.contents(t)) != 0 {
		t.Fatalf("content not removed: blobs=%d contents=%d", f.blobs.count(), len(f.contents(t)))
	}

	if err := f.svc.Delete(ctx, b); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}

	if _, err := f.svc.Get(ctx, b); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("get deleted err = %v", err)
	}
}

func TestDelete_OrphanRetry(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orphaned, err := ps.Subscribe(ctx, queue.TopicContentOrphaned)
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture(t,
		service.WithPublisher(ps),
		service.WithEvents(configs.EventsConfig{
			Enabled: true,
			File:    configs.FileEventsConfig{Uploaded: true, Deleted: true, Orphaned: true},
		}),
	)

	id := f.upload(t, "a.txt", "text/plain", "orphan")
	f.blobs.setFailDelete(errors.New("connection refused"))

	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete must succeed when blob removal fails: %v", err)
	}

	select {
	case msg := <-orphaned:
		msg.Ack()

		env, err := queue.ParseContentOrphaned(msg)
		if err != nil || env.Payload.Error != "connection refused" {
			t.Fatalf("orphan event = %+v, %v", env, err)
		}
	case <-ctx.Done():
		t.Fatal("no orphan event")
	}

	c := f.contents(t)
	if len(c) != 1 || c[0].ReferenceCount != 0 {
		t.Fatalf("orphan row = %+v", c)
	}

	if _, err := f.svc.CleanupOrphans(ctx); err == nil {
		t.Fatal("cleanup should report blob failure")
	}

	f.blobs.setFailDelete(nil)

	removed, err := f.svc.CleanupOrphans(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("cleanup = %d, %v", removed, err)
	}

	if len(f.contents(t)) != 0 || f.blobs.count() != 0 {
		t.Fatal("orphan not cleaned")
	}
}

func TestUpload_RevivesOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.upload(t, "a.txt", "text/plain", "again")
	old := f.contents(t)[0]

	f.blobs.setFailDelete(errors.New("boom"))

	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}

	f.blobs.setFailDelete(nil)

	resp, err := f.svc.Upload(ctx, "b.txt", "text/plain", 5, strings.NewReader("again"))
	if err != nil {
		t.Fatal(err)
	}

	if resp.UploadDetails.WasDeduplicated {
		t.Error("revived content is not a deduplication hit")
	}

	c := f.contents(t)
	if len(c) != 1 || c[0].ID != old.ID || c[0].ReferenceCount != 1 || c[0].ObjectKey == old.ObjectKey {
		t.Fatalf("revived = %+v, old = %+v", c, old)
	}

	if f.blobs.count() != 1 {
		t.Fatalf("blobs = %d, want 1", f.blobs.count())
	}

	removed, err := f.svc.RemoveOrphan(ctx, old.ID)
	if err != nil || removed {
		t.Fatalf("revived content must not be removed: %v, %v", removed, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := []struct {
		name, fileType, body string
		at                   time.Time
	}{
		{"Report_2024.pdf", "application/pdf", strings.Repeat("r", 300), time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)},
		{"holiday.png", "image/png", strings.Repeat("p", 1200), time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)},
		{"notes.txt", "text/plain", strings.Repeat("n", 50), time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"report-final.PDF", "Application/PDF", strings.Repeat("q", 800), time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)},
		{"50%_off.txt", "text/plain", strings.Repeat("o", 10), time.Date(2025, 2, 2, 9, 30, 0, 0, time.UTC)},
	}

	for _, s := range seed {
		f.clock.Set(s.at)
		f.upload(t, s.name, s.fileType, s.body)
	}

	orderNewest := filter.OrderNewest
	orderSmallest := filter.OrderSmallest
	orderName := filter.OrderNameAsc

	cases := []struct {
		name string
		q    filter.Query
		want []string
	}{
		{"empty query newest first", filter.Query{}, []string{"50%_off.txt", "report-final.PDF", "notes.txt", "holiday.png", "Report_2024.pdf"}},
		{"search case insensitive", filter.Query{Search: ptr("REPORT"), Ordering: &orderName}, []string{"Report_2024.pdf", "report-final.PDF"}},
		{"search escapes wildcards", filter.Query{Search: ptr("%_")}, []string{"50%_off.txt"}},
		{"file type iexact", filter.Query{FileType: ptr("application/pdf"), Ordering: &orderNewest}, []string{"report-final.PDF", "Report_2024.pdf"}},
		{"all types", filter.Query{FileType: ptr(filter.AllTypes), Ordering: &orderSmallest}, []string{"50%_off.txt", "notes.txt", "Report_2024.pdf", "report-final.PDF", "holiday.png"}},
		{"size range inclusive", filter.Query{MinSize: ptr(int64(50)), MaxSize: ptr(int64(800)), Ordering: &orderSmallest}, []string{"notes.txt", "Report_2024.pdf", "report-final.PDF"}},
		{"date range inclusive", filter.Query{StartDate: ptr("2025-01-15"), EndDate: ptr("2025-01-20"), Ordering: &orderNewest}, []string{"notes.txt", "holiday.png"}},
		{"no match", filter.Query{Search: ptr("missing")}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.svc.List(ctx, tc.q, 1, 50)
			if err != nil {
				t.Fatal(err)
			}

			if resp.Count != int64(len(tc.want)) || len(resp.Results) != len(tc.want) {
				t.Fatalf("count = %d, results = %d, want %d", resp.Count, len(resp.Results), len(tc.want))
			}

			for i, v := range resp.Results {
				if v.OriginalFilename != tc.want[i] {
					t.Errorf("result[%d] = %s, want %s", i, v.OriginalFilename, tc.want[i])
				}
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := range 5 {
		f.clock.Set(time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC))
		f.upload(t, fmt.Sprintf("f%d.txt", i), "text/plain", fmt.Sprintf("body-%d", i))
	}

	resp, err := f.svc.List(ctx, filter.Query{}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Count != 5 || resp.Page != 2 || resp.PageSize != 2 || len(resp.Results) != 2 {
		t.Fatalf("page = %+v", resp)
	}

	if resp.Results[0].OriginalFilename != "f2.txt" {
		t.Errorf("first on page 2 = %s", resp.Results[0].OriginalFilename)
	}

	resp, err = f.svc.List(ctx, filter.Query{}, 0, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Page != service.DefaultPage || resp.PageSize != service.MaxPageSize {
		t.Errorf("clamped page = %d/%d", resp.Page, resp.PageSize)
	}
}

func TestList_CacheInvalidation(t *testing.T) {
	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, service.WithCache(cache.NewCache(store, "fv"), time.Minute))
	ctx := context.Background()

	f.upload(t, "one.txt", "text/plain", "1")

	resp, err := f.svc.List(ctx, filter.Query{}, 1, 10)
	if err != nil || resp.Count != 1 {
		t.Fatalf("first list = %+v, %v", resp, err)
	}

	f.upload(t, "two.txt", "text/plain", "2")

	resp, err = f.svc.List(ctx, filter.Query{}, 1, 10)
	if err != nil || resp.Count != 2 {
		t.Fatalf("list after upload = %+v, %v", resp, err)
	}

	types, err := f.svc.FileTypes(ctx)
	if err != nil || len(types) != 1 || types[0] != "text/plain" {
		t.Fatalf("types = %v, %v", types, err)
	}
}

func TestStatsAndDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if empty.Summary.DeduplicationRatio != "0%" || empty.Summary.StorageEfficiency != "0%" || len(empty.FileTypes) != 0 {
		t.Fatalf("empty stats = %+v", empty)
	}

	f.upload(t, "a.txt", "text/plain", "dup-body")   // 8 B
	f.upload(t, "b.txt", "text/plain", "dup-body")   // 8 B
	f.upload(t, "c.txt", "text/plain", "dup-body")   // 8 B
	f.upload(t, "d.png", "image/png", "unique-body") // 11 B

	st, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}

	s := st.Summary
	if s.TotalFiles != 4 || s.UniqueFiles != 2 || s.TotalStorageUsed != 19 || s.StorageSaved != 16 {
		t.Fatalf("summary = %+v", s)
	}

	if s.DeduplicationRatio != "50.0%" || s.StorageEfficiency != "45.7%" {
		t.Errorf("ratios = %s / %s", s.DeduplicationRatio, s.StorageEfficiency)
	}

	if len(st.FileTypes) != 2 || st.FileTypes[0].FileType != "text/plain" || st.FileTypes[0].Count != 3 || st.FileTypes[0].TotalSize != 24 {
		t.Errorf("file types = %+v", st.FileTypes)
	}

	dups, err := f.svc.Duplicates(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if dups.TotalDuplicateGroups != 1 {
		t.Fatalf("groups = %d", dups.TotalDuplicateGroups)
	}

	g := dups.Duplicates[0]
	if g.ReferenceCount != 3 || g.Size != 8 || g.StorageSaved != 16 || len(g.Files) != 3 || !strings.HasSuffix(g.ContentHash, "...") {
		t.Errorf("group = %+v", g)
	}
}

func TestDownloadURL(t *testing.T) {
	f := newFixture(t)

	id := f.upload(t, "report.pdf", "application/pdf", "pdf")

	resp, err := f.svc.DownloadURL(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	if resp.ID != id || resp.ExpiresIn != 600 || !strings.Contains(resp.URL, "name=report.pdf") {
		t.Errorf("url = %+v", resp)
	}

	if _, err := f.svc.DownloadURL(context.Background(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{10 * 1024 * 1024, "10.00 MB"},
		{1 << 40, "1.00 TB"},
		{1 << 50, "1.00 PB"},
	}

	for _, tc := range cases {
		if got := service.FormatSize(tc.n); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
