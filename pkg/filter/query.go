// Package filter 实现文件列表页的搜索/筛选表单（Form）以及它产出的筛选条件（Query）.
//
// Form 只维护本地表单状态，在用户"应用筛选"或"清除筛选"时，把状态整理成 Query 并同步回调宿主；
// Query 是宿主与文件列表服务之间传递的值对象，未填写的字段一律缺省（nil），而不是空字符串，
// 这样接收方才能区分"不筛选"与"按空字符串筛选".
//
// Example:
//
//	form := filter.NewForm([]string{"image/png", "application/pdf"}, func(q filter.Query) {
//		files, err := client.List(ctx, q, 1, 50)
//		// ...
//	})
//
//	form.SetSearch("report.pdf")
//	form.ApplyFilters() // -> {search: "report.pdf", ordering: "-uploaded_at"}
//
//	form.ClearFilters() // -> {}
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Ordering 排序键，同时决定排序字段与方向，前缀 "-" 表示降序.
type Ordering string

const (
	OrderNewest   Ordering = "-uploaded_at"       // 最新上传优先
	OrderOldest   Ordering = "uploaded_at"        // 最早上传优先
	OrderLargest  Ordering = "-size"              // 最大优先
	OrderSmallest Ordering = "size"               // 最小优先
	OrderNameAsc  Ordering = "original_filename"  // 文件名 A-Z
	OrderNameDesc Ordering = "-original_filename" // 文件名 Z-A

	// DefaultOrdering 表单与服务端的默认排序.
	DefaultOrdering = OrderNewest
)

// AllTypes 文件类型下拉框中"全部类型"的取值，与空字符串等价.
const AllTypes = "all"

// ErrInvalidOrdering 排序键不在枚举范围内.
var ErrInvalidOrdering = errors.New("invalid ordering")

// orderings 按下拉框展示顺序排列.
var orderings = []Ordering{
	OrderNewest,
	OrderOldest,
	OrderLargest,
	OrderSmallest,
	OrderNameAsc,
	OrderNameDesc,
}

var orderingLabels = map[Ordering]string{
	OrderNewest:   "Newest First",
	OrderOldest:   "Oldest First",
	OrderLargest:  "Largest First",
	OrderSmallest: "Smallest First",
	OrderNameAsc:  "Name (A-Z)",
	OrderNameDesc: "Name (Z-A)",
}

// Orderings 返回全部排序键（展示顺序）.
func Orderings() []Ordering {
	out := make([]Ordering, len(orderings))
	copy(out, orderings)

	return out
}

// ParseOrdering 解析排序键.
func ParseOrdering(s string) (Ordering, error) {
	o := Ordering(s)
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrdering, s)
	}

	return o, nil
}

// Valid 是否为合法排序键.
func (o Ordering) Valid() bool {
	_, ok := orderingLabels[o]
	return ok
}

// Field 去掉方向前缀后的字段名.
func (o Ordering) Field() string {
	return strings.TrimPrefix(string(o), "-")
}

// Desc 是否降序.
func (o Ordering) Desc() bool {
	return strings.HasPrefix(string(o), "-")
}

// Label 下拉框展示文案.
func (o Ordering) Label() string {
	return orderingLabels[o]
}

func (o Ordering) String() string { return string(o) }

// Query 筛选条件. 所有字段可选，nil 表示不筛选.
type Query struct {
	Search    *string   `json:"search,omitempty"`
	FileType  *string   `json:"file_type,omitempty"`
	MinSize   *int64    `json:"min_size,omitempty"`
	MaxSize   *int64    `json:"max_size,omitempty"`
	StartDate *string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	Ordering  *Ordering `json:"ordering,omitempty"`
}

// IsEmpty 没有任何字段（包括 ordering）时为 true，对应"清除筛选"产出的查询.
func (q Query) IsEmpty() bool {
	return q.Search == nil && q.FileType == nil &&
		q.MinSize == nil && q.MaxSize == nil &&
		q.StartDate == nil && q.EndDate == nil &&
		q.Ordering == nil
}

// OrderingOrDefault 返回排序键，缺省时为 DefaultOrdering.
func (q Query) OrderingOrDefault() Ordering {
	if q.Ordering == nil || !q.Ordering.Valid() {
		return DefaultOrdering
	}

	return *q.Ordering
}

// String 便于日志输出.
func (q Query) String() string {
	if q.IsEmpty() {
		return "{}"
	}

	return "{" + q.Values().Encode() + "}"
}
