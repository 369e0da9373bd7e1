package filter

import (
	"math"
	"strings"
)

// State 表单当前各字段的原始输入，用于渲染.
type State struct {
	Search       string   `json:"search"`
	FileType     string   `json:"file_type"`
	MinSize      string   `json:"min_size"`
	MaxSize      string   `json:"max_size"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Ordering     Ordering `json:"ordering"`
	ShowAdvanced bool     `json:"show_advanced"`
}

// Form 搜索框 + 高级筛选面板的表单状态.
//
// Form 由宿主独占，所有状态变更都在宿主的事件处理中同步完成，不支持并发使用.
type Form struct {
	fileTypes []string
	onChange  func(Query)

	search    string
	fileType  string
	minSize   string
	maxSize   string
	startDate string
	endDate   string
	ordering  Ordering

	showAdvanced bool
}

// NewForm 创建表单. fileTypes 为文件类型下拉框的候选值（保持传入顺序），
// onChange 在应用或清除筛选时被同步调用，可以为 nil.
func NewForm(fileTypes []string, onChange func(Query)) *Form {
	types := make([]string, len(fileTypes))
	copy(types, fileTypes)

	return &Form{
		fileTypes: types,
		onChange:  onChange,
		ordering:  DefaultOrdering,
	}
}

// FileTypes 返回文件类型候选值.
func (f *Form) FileTypes() []string {
	out := make([]string, len(f.fileTypes))
	copy(out, f.fileTypes)

	return out
}

func (f *Form) SetSearch(v string)    { f.search = v }
func (f *Form) SetFileType(v string)  { f.fileType = v }
func (f *Form) SetMinSize(v string)   { f.minSize = v }
func (f *Form) SetMaxSize(v string)   { f.maxSize = v }
func (f *Form) SetStartDate(v string) { f.startDate = v }
func (f *Form) SetEndDate(v string)   { f.endDate = v }

// SetOrdering 设置排序键，非法值返回 ErrInvalidOrdering 并保留原值.
func (f *Form) SetOrdering(v string) error {
	o, err := ParseOrdering(v)
	if err != nil {
		return err
	}

	f.ordering = o

	return nil
}

// ToggleAdvanced 展开/收起高级筛选面板，不影响产出的查询.
func (f *Form) ToggleAdvanced() { f.showAdvanced = !f.showAdvanced }

// ShowAdvanced 高级筛选面板是否展开.
func (f *Form) ShowAdvanced() bool { return f.showAdvanced }

// Snapshot 返回当前表单状态.
func (f *Form) Snapshot() State {
	return State{
		Search:       f.search,
		FileType:     f.fileType,
		MinSize:      f.minSize,
		MaxSize:      f.maxSize,
		StartDate:    f.startDate,
		EndDate:      f.endDate,
		Ordering:     f.ordering,
		ShowAdvanced: f.showAdvanced,
	}
}

// HasActiveFilters 任一筛选字段非空即为 true，排序不计入.
// 用于控制"清除筛选"按钮是否可用以及 Active 徽标.
func (f *Form) HasActiveFilters() bool {
	return f.search != "" || !isAllTypes(f.fileType) ||
		f.minSize != "" || f.maxSize != "" ||
		f.startDate != "" || f.endDate != ""
}

// Build 根据当前状态构造查询，但不触发回调.
func (f *Form) Build() Query {
	q := Query{
		Search:    nonEmpty(f.search),
		StartDate: nonEmpty(f.startDate),
		EndDate:   nonEmpty(f.endDate),
	}

	if !isAllTypes(f.fileType) {
		ft := f.fileType
		q.FileType = &ft
	}

	if n, ok := parseSize(f.minSize); ok {
		q.MinSize = &n
	}

	if n, ok := parseSize(f.maxSize); ok {
		q.MaxSize = &n
	}

	ordering := f.ordering
	q.Ordering = &ordering

	return q
}

// ApplyFilters 构造查询并回调宿主，返回产出的查询. ordering 总是包含在内.
func (f *Form) ApplyFilters() Query {
	q := f.Build()
	f.emit(q)

	return q
}

// SubmitSearch 搜索框回车或点击 Search 按钮，与 ApplyFilters 等价.
func (f *Form) SubmitSearch() Query {
	return f.ApplyFilters()
}

// ClearFilters 重置全部字段为默认值，并以空查询回调宿主（不含 ordering）.
// 面板展开状态保持不变.
func (f *Form) ClearFilters() Query {
	f.search = ""
	f.fileType = ""
	f.minSize = ""
	f.maxSize = ""
	f.startDate = ""
	f.endDate = ""
	f.ordering = DefaultOrdering

	q := Query{}
	f.emit(q)

	return q
}

func (f *Form) emit(q Query) {
	if f.onChange != nil {
		f.onChange(q)
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func isAllTypes(s string) bool {
	return s == "" || s == AllTypes
}

// parseSize 按 parseInt 的方式取前导整数：忽略前导空白，允许符号位，0x/0X 前缀按十六进制，读到第一个非法字符为止.
// 无数字、负数或溢出时返回 false.
func parseSize(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	if s == "" {
		return 0, false
	}

	neg := false

	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	base := int64(10)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	var (
		n      int64
		digits int
	)

	for ; digits < len(s); digits++ {
		d, ok := digitValue(s[digits], base)
		if !ok {
			break
		}

		if n > (math.MaxInt64-d)/base {
			return 0, false
		}

		n = n*base + d
	}

	if digits == 0 {
		return 0, false
	}

	if neg {
		if n == 0 {
			return 0, true
		}

		return 0, false
	}

	return n, true
}

func digitValue(c byte, base int64) (int64, bool) {
	var d int64

	switch {
	case c >= '0' && c <= '9':
		d = int64(c - '0')
	case c >= 'a' && c <= 'z':
		d = int64(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int64(c-'A') + 10
	default:
		return 0, false
	}

	return d, d < base
}
