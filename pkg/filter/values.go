package filter

import (
	"net/url"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// 查询参数名，同时也是 JSON 字段名.
const (
	ParamSearch    = "search"
	ParamFileType  = "file_type"
	ParamMinSize   = "min_size"
	ParamMaxSize   = "max_size"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamOrdering  = "ordering"
)

// DateLayout 日期字段格式（ISO 8601 日历日期）.
const DateLayout = "2006-01-02"

// Values 编码为 URL 查询参数，缺省字段不出现.
func (q Query) Values() url.Values {
	v := url.Values{}

	setStr := func(k string, p *string) {
		if p != nil {
			v.Set(k, *p)
		}
	}

	setInt := func(k string, p *int64) {
		if p != nil {
			v.Set(k, strconv.FormatInt(*p, 10))
		}
	}

	setStr(ParamSearch, q.Search)
	setStr(ParamFileType, q.FileType)
	setInt(ParamMinSize, q.MinSize)
	setInt(ParamMaxSize, q.MaxSize)
	setStr(ParamStartDate, q.StartDate)
	setStr(ParamEndDate, q.EndDate)

	if q.Ordering != nil {
		v.Set(ParamOrdering, string(*q.Ordering))
	}

	return v
}

// CacheKey 查询的稳定摘要，url.Values.Encode 按键排序，相同条件得到相同的键.
func (q Query) CacheKey() string {
	return strconv.FormatUint(xxhash.Sum64String(q.Values().Encode()), 16)
}

// ParseValues 解析列表接口收到的查询参数，宽松处理：
//   - search、file_type 非空才生效，file_type 为 all 视为不筛选
//   - min_size、max_size 必须全部是数字
//   - start_date、end_date 必须是 YYYY-MM-DD
//   - ordering 不在枚举范围内时回落到默认值
//
// 返回的查询总是带 ordering.
func ParseValues(v url.Values) Query {
	var q Query

	if s := v.Get(ParamSearch); s != "" {
		q.Search = &s
	}

	if s := v.Get(ParamFileType); !isAllTypes(s) {
		q.FileType = &s
	}

	if n, ok := parseDigits(v.Get(ParamMinSize)); ok {
		q.MinSize = &n
	}

	if n, ok := parseDigits(v.Get(ParamMaxSize)); ok {
		q.MaxSize = &n
	}

	if s := v.Get(ParamStartDate); s != "" {
		if _, ok := ParseDate(s); ok {
			q.StartDate = &s
		}
	}

	if s := v.Get(ParamEndDate); s != "" {
		if _, ok := ParseDate(s); ok {
			q.EndDate = &s
		}
	}

	ordering := DefaultOrdering
	if o := Ordering(v.Get(ParamOrdering)); o.Valid() {
		ordering = o
	}

	q.Ordering = &ordering

	return q
}

// ParseDate 解析 YYYY-MM-DD，返回当天 00:00 UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// parseDigits 仅接受非空的纯 ASCII 数字串.
func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}
