package filter_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/yeisme/filevault/pkg/filter"
)

func ptr[T any](v T) *T { return &v }

// recorder 记录表单回调收到的查询.
type recorder struct {
	calls []filter.Query
}

func (r *recorder) onChange(q filter.Query) { r.calls = append(r.calls, q) }

func (r *recorder) last(t *testing.T) filter.Query {
	t.Helper()

	if len(r.calls) == 0 {
		t.Fatal("callback was not invoked")
	}

	return r.calls[len(r.calls)-1]
}

func mustJSON(t *testing.T, q filter.Query) string {
	t.Helper()

	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal query: %v", err)
	}

	return string(b)
}

// TestApplyFilters_MinSize 数字字符串按 parseInt 取值，空串缺省.
func TestApplyFilters_MinSize(t *testing.T) {
	cases := []struct {
		in   string
		want *int64
	}{
		{"", nil},
		{"0", ptr(int64(0))},
		{"100", ptr(int64(100))},
		{"5000", ptr(int64(5000))},
		{"  42", ptr(int64(42))},
		{"+7", ptr(int64(7))},
		{"12.9", ptr(int64(12))},
		{"1e3", ptr(int64(1))},
		{"64kb", ptr(int64(64))},
		{"0x10", ptr(int64(16))},
		{"0XfF", ptr(int64(255))},
		{"0x1g", ptr(int64(1))},
		{"0x", nil},
		{"0b11", ptr(int64(0))},
		{"abc", nil},
		{"-5", nil},
		{"-", nil},
		{"99999999999999999999", nil},
	}

	for _, tc := range cases {
		rec := &recorder{}
		form := filter.NewForm(nil, rec.onChange)
		form.SetMinSize(tc.in)
		form.SetMaxSize(tc.in)

		q := form.ApplyFilters()
		if !reflect.DeepEqual(q.MinSize, tc.want) {
			t.Errorf("min_size for %q = %v, want %v", tc.in, deref(q.MinSize), deref(tc.want))
		}

		if !reflect.DeepEqual(q.MaxSize, tc.want) {
			t.Errorf("max_size for %q = %v, want %v", tc.in, deref(q.MaxSize), deref(tc.want))
		}

		if !reflect.DeepEqual(rec.last(t), q) {
			t.Errorf("callback query differs from returned query for %q", tc.in)
		}
	}
}

func deref(p *int64) any {
	if p == nil {
		return nil
	}

	return *p
}

// TestApplyFilters_AllBlank 全部为空时只包含默认排序.
func TestApplyFilters_AllBlank(t *testing.T) {
	rec := &recorder{}
	form := filter.NewForm([]string{"image/png"}, rec.onChange)

	q := form.ApplyFilters()

	want := filter.Query{Ordering: ptr(filter.OrderNewest)}
	if !reflect.DeepEqual(q, want) {
		t.Fatalf("query = %s, want %s", q, want)
	}

	if got := mustJSON(t, rec.last(t)); got != `{"ordering":"-uploaded_at"}` {
		t.Fatalf("json = %s", got)
	}
}

// TestClearFilters 清除后所有字段回到默认值，回调收到空对象.
func TestClearFilters(t *testing.T) {
	rec := &recorder{}
	form := filter.NewForm([]string{"application/pdf"}, rec.onChange)

	form.SetSearch("x")
	form.SetFileType("application/pdf")
	form.SetMinSize("1")
	form.SetMaxSize("2")
	form.SetStartDate("2024-01-01")
	form.SetEndDate("2024-02-01")

	if err := form.SetOrdering("size"); err != nil {
		t.Fatalf("set ordering: %v", err)
	}

	form.ToggleAdvanced()

	q := form.ClearFilters()
	if !q.IsEmpty() {
		t.Fatalf("clear query not empty: %s", q)
	}

	if got := mustJSON(t, rec.last(t)); got != `{}` {
		t.Fatalf("json = %s, want {}", got)
	}

	want := filter.State{Ordering: filter.DefaultOrdering, ShowAdvanced: true}
	if got := form.Snapshot(); got != want {
		t.Fatalf("state after clear = %+v, want %+v", got, want)
	}

	if form.HasActiveFilters() {
		t.Fatal("HasActiveFilters should be false after clear")
	}
}

// TestHasActiveFilters 排序不计入，其它任一字段非空即为 true.
func TestHasActiveFilters(t *testing.T) {
	setters := map[string]func(*filter.Form){
		"search":     func(f *filter.Form) { f.SetSearch("a") },
		"file_type":  func(f *filter.Form) { f.SetFileType("text/plain") },
		"min_size":   func(f *filter.Form) { f.SetMinSize("1") },
		"max_size":   func(f *filter.Form) { f.SetMaxSize("abc") },
		"start_date": func(f *filter.Form) { f.SetStartDate("2024-01-01") },
		"end_date":   func(f *filter.Form) { f.SetEndDate("2024-01-01") },
	}

	blank := filter.NewForm(nil, nil)
	if blank.HasActiveFilters() {
		t.Fatal("blank form reported active filters")
	}

	_ = blank.SetOrdering("-size")
	blank.ToggleAdvanced()

	if blank.HasActiveFilters() {
		t.Fatal("ordering and panel toggle must not count as filters")
	}

	blank.SetFileType(filter.AllTypes)

	if blank.HasActiveFilters() {
		t.Fatal("all types must not count as a filter")
	}

	for name, set := range setters {
		f := filter.NewForm(nil, nil)
		set(f)

		if !f.HasActiveFilters() {
			t.Errorf("%s: HasActiveFilters = false, want true", name)
		}
	}
}

// TestSetOrdering 非法排序键被拒绝且保留原值.
func TestSetOrdering(t *testing.T) {
	form := filter.NewForm(nil, nil)

	if err := form.SetOrdering("-original_filename"); err != nil {
		t.Fatalf("valid ordering rejected: %v", err)
	}

	err := form.SetOrdering("created_at")
	if !errors.Is(err, filter.ErrInvalidOrdering) {
		t.Fatalf("err = %v, want ErrInvalidOrdering", err)
	}

	if got := form.Snapshot().Ordering; got != filter.OrderNameDesc {
		t.Fatalf("ordering = %s, want %s", got, filter.OrderNameDesc)
	}
}

// TestScenarios 端到端场景：搜索、高级筛选、清除.
func TestScenarios(t *testing.T) {
	rec := &recorder{}
	form := filter.NewForm([]string{"application/pdf", "image/png"}, rec.onChange)

	// 场景 1
	form.SetSearch("report.pdf")
	form.SubmitSearch()

	if got := mustJSON(t, rec.last(t)); got != `{"search":"report.pdf","ordering":"-uploaded_at"}` {
		t.Fatalf("scenario 1 json = %s", got)
	}

	// 场景 3：在场景 1 之后清除
	form.ClearFilters()

	if got := mustJSON(t, rec.last(t)); got != `{}` {
		t.Fatalf("scenario 3 json = %s", got)
	}

	if form.Snapshot().Search != "" {
		t.Fatal("search not reset")
	}

	// 场景 2
	form.ToggleAdvanced()
	form.SetMinSize("100")
	form.SetMaxSize("5000")

	if err := form.SetOrdering("size"); err != nil {
		t.Fatal(err)
	}

	form.ApplyFilters()

	if got := mustJSON(t, rec.last(t)); got != `{"min_size":100,"max_size":5000,"ordering":"size"}` {
		t.Fatalf("scenario 2 json = %s", got)
	}

	if len(rec.calls) != 3 {
		t.Fatalf("callback calls = %d, want 3", len(rec.calls))
	}
}

// TestApplyFilters_DatesAndTypes 日期原样透传，all 类型视为不筛选.
func TestApplyFilters_DatesAndTypes(t *testing.T) {
	form := filter.NewForm([]string{"image/png"}, nil)
	form.SetStartDate("2024-03-01")
	form.SetEndDate("not-a-date")
	form.SetFileType(filter.AllTypes)

	q := form.ApplyFilters()

	if q.FileType != nil {
		t.Fatalf("file_type = %q, want absent", *q.FileType)
	}

	if q.StartDate == nil || *q.StartDate != "2024-03-01" {
		t.Fatalf("start_date = %v", q.StartDate)
	}

	if q.EndDate == nil || *q.EndDate != "not-a-date" {
		t.Fatal("end_date must be forwarded literally")
	}

	form.SetFileType("image/png")

	q = form.ApplyFilters()
	if q.FileType == nil || *q.FileType != "image/png" {
		t.Fatalf("file_type = %v", q.FileType)
	}
}

// TestFileTypes 候选值保持传入顺序且不被外部修改.
func TestFileTypes(t *testing.T) {
	in := []string{"b", "a", "c"}
	form := filter.NewForm(in, nil)
	in[0] = "z"

	got := form.FileTypes()
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("file types = %v", got)
	}

	got[1] = "y"
	if form.FileTypes()[1] != "a" {
		t.Fatal("FileTypes leaked internal slice")
	}
}
