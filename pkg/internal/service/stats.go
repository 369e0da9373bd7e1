package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// Stats 存储与去重统计.
func (s *FileService) Stats(ctx context.Context) (*types.StatsResponse, error) {
	resp, err := cache.GetOrSet(ctx, s.cache, "stats", func() (types.StatsResponse, error) {
		return s.stats(ctx)
	}, s.cacheTTL)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (s *FileService) stats(ctx context.Context) (types.StatsResponse, error) {
	var (
		totalFiles, uniqueFiles int64
		used, potential         int64
		fileTypes               = []types.FileTypeStat{}
	)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&model.File{}).Count(&totalFiles).Error
	})

	// 引用归零、等待清理的内容不计入
	g.Go(func() error {
		return db.Model(&model.FileContent{}).Where("reference_count > 0").Count(&uniqueFiles).Error
	})

	g.Go(func() error {
		return db.Model(&model.FileContent{}).Where("reference_count > 0").
			Select("COALESCE(SUM(size), 0)").Scan(&used).Error
	})

	g.Go(func() error {
		return db.Model(&model.File{}).Select("COALESCE(SUM(size), 0)").Scan(&potential).Error
	})

	g.Go(func() error {
		return db.Model(&model.File{}).
			Select("file_type, COUNT(id) AS count, COALESCE(SUM(size), 0) AS total_size").
			Group("file_type").
			Order("count DESC").
			Order("file_type").
			Limit(topFileTypes).
			Scan(&fileTypes).Error
	})

	if err := g.Wait(); err != nil {
		return types.StatsResponse{}, fmt.Errorf("collect stats: %w", err)
	}

	saved := potential - used

	summary := types.StatsSummary{
		TotalFiles:         totalFiles,
		UniqueFiles:        uniqueFiles,
		DeduplicationRatio: "0%",
		TotalStorageUsed:   used,
		StorageSaved:       saved,
		StorageEfficiency:  "0%",
	}

	if totalFiles > 0 {
		summary.DeduplicationRatio = percent(1 - float64(uniqueFiles)/float64(totalFiles))
	}

	if potential > 0 {
		summary.StorageEfficiency = percent(float64(saved) / float64(potential))
	}

	return types.StatsResponse{Summary: summary, FileTypes: fileTypes}, nil
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Duplicates 被多个文件引用的内容，按引用数降序.
func (s *FileService) Duplicates(ctx context.Context) (*types.DuplicatesResponse, error) {
	resp, err := cache.GetOrSet(ctx, s.cache, "duplicates", func() (types.DuplicatesResponse, error) {
		return s.duplicates(ctx)
	}, s.cacheTTL)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (s *FileService) duplicates(ctx context.Context) (types.DuplicatesResponse, error) {
	resp := types.DuplicatesResponse{Duplicates: []types.DuplicateGroup{}}

	db := s.db.WithContext(ctx)

	var contents []model.FileContent

	err := db.Where("reference_count > 1").
		Order("reference_count DESC").
		Order("content_hash").
		Find(&contents).Error
	if err != nil {
		return resp, fmt.Errorf("list duplicate contents: %w", err)
	}

	if len(contents) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(contents))
	for _, c := range contents {
		ids = append(ids, c.ID)
	}

	var files []model.File
	if err := db.Where("content_id IN ?", ids).Order("uploaded_at").Order("id").Find(&files).Error; err != nil {
		return resp, fmt.Errorf("list duplicate files: %w", err)
	}

	byContent := make(map[string][]types.DuplicateFile, len(contents))
	for _, f := range files {
		byContent[f.ContentID] = append(byContent[f.ContentID], types.DuplicateFile{
			ID:               f.ID,
			OriginalFilename: f.OriginalFilename,
			UploadedAt:       f.UploadedAt,
		})
	}

	for _, c := range contents {
		group := types.DuplicateGroup{
			ContentHash:    shortHash(c.ContentHash),
			Size:           c.Size,
			ReferenceCount: c.ReferenceCount,
			StorageSaved:   c.Size * (c.ReferenceCount - 1),
			Files:          byContent[c.ID],
		}

		if group.Files == nil {
			group.Files = []types.DuplicateFile{}
		}

		resp.Duplicates = append(resp.Duplicates, group)
	}

	resp.TotalDuplicateGroups = len(resp.Duplicates)

	return resp, nil
}
