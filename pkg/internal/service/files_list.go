package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// likeEscaper LIKE 模式中的转义，转义符为 '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// List 按筛选条件分页列出文件，结果写入查询缓存.
func (s *FileService) List(ctx context.Context, q filter.Query, page, pageSize int) (*types.ListFilesResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	key := fmt.Sprintf("list:%s:%d:%d", q.CacheKey(), page, pageSize)

	resp, err := cache.GetOrSet(ctx, s.cache, key, func() (types.ListFilesResponse, error) {
		return s.list(ctx, q, page, pageSize)
	}, s.cacheTTL)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (s *FileService) list(ctx context.Context, q filter.Query, page, pageSize int) (types.ListFilesResponse, error) {
	resp := types.ListFilesResponse{Page: page, PageSize: pageSize, Results: []types.FileView{}}

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.File{}).Scopes(filterScope(q)).Count(&resp.Count).Error; err != nil {
		return resp, fmt.Errorf("count files: %w", err)
	}

	if resp.Count == 0 {
		return resp, nil
	}

	ordering := q.OrderingOrDefault()

	var files []model.File

	err := db.Scopes(filterScope(q)).
		Preload("Content").
		Order(clause.OrderByColumn{Column: clause.Column{Name: ordering.Field()}, Desc: ordering.Desc()}).
		Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&files).Error
	if err != nil {
		return resp, fmt.Errorf("list files: %w", err)
	}

	for _, f := range files {
		resp.Results = append(resp.Results, s.toView(f, f.Content.ReferenceCount))
	}

	return resp, nil
}

// filterScope 把筛选条件翻译为 WHERE 子句.
// 文件名包含与类型相等均不区分大小写，大小区间与日期区间都包含端点.
func filterScope(q filter.Query) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if q.Search != nil && *q.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(*q.Search)) + "%"
			tx = tx.Where("LOWER(original_filename) LIKE ? ESCAPE '!'", pattern)
		}

		if q.FileType != nil && *q.FileType != "" && *q.FileType != filter.AllTypes {
			tx = tx.Where("LOWER(file_type) = ?", strings.ToLower(*q.FileType))
		}

		if q.MinSize != nil {
			tx = tx.Where("size >= ?", *q.MinSize)
		}

		if q.MaxSize != nil {
			tx = tx.Where("size <= ?", *q.MaxSize)
		}

		if q.StartDate != nil {
			if t, ok := filter.ParseDate(*q.StartDate); ok {
				tx = tx.Where("uploaded_at >= ?", t)
			}
		}

		if q.EndDate != nil {
			if t, ok := filter.ParseDate(*q.EndDate); ok {
				// 结束日期当天全天有效
				tx = tx.Where("uploaded_at < ?", t.AddDate(0, 0, 1))
			}
		}

		return tx
	}
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}

	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	return page, pageSize
}

// FileTypes 返回已存在的文件类型（去重、升序），用于筛选表单的下拉框.
func (s *FileService) FileTypes(ctx context.Context) ([]string, error) {
	return cache.GetOrSet(ctx, s.cache, "types", func() ([]string, error) {
		fileTypes := []string{}

		err := s.db.WithContext(ctx).Model(&model.File{}).
			Distinct("file_type").
			Order("file_type").
			Pluck("file_type", &fileTypes).Error
		if err != nil {
			return nil, fmt.Errorf("list file types: %w", err)
		}

		return fileTypes, nil
	}, s.cacheTTL)
}
