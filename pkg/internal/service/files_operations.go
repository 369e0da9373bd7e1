package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/tracing"
)

// Get 返回单个文件.
func (s *FileService) Get(ctx context.Context, id string) (*types.FileView, error) {
	file, err := s.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}

	view := s.toView(file, file.Content.ReferenceCount)

	return &view, nil
}

// DownloadURL 生成文件内容的预签名下载链接，下载时使用原始文件名.
func (s *FileService) DownloadURL(ctx context.Context, id string) (*types.FileURLResponse, error) {
	file, err := s.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.BlobURL(ctx, file.Content.ObjectKey, file.OriginalFilename, s.urlExpiry)
	if err != nil {
		return nil, err
	}

	return &types.FileURLResponse{
		ID:        file.ID,
		URL:       url,
		ExpiresIn: int(s.urlExpiry.Seconds()),
	}, nil
}

func (s *FileService) loadFile(ctx context.Context, id string) (model.File, error) {
	var file model.File

	err := s.db.WithContext(ctx).Preload("Content").Where("id = ?", id).Take(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return file, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return file, fmt.Errorf("load file %s: %w", id, err)
	}

	return file, nil
}

// Delete 删除文件记录并释放内容引用. 引用归零时删除 blob 与内容行；
// blob 删除失败时内容行保留，由孤儿清理重试.
func (s *FileService) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "FileService.Delete")
	defer span.End()

	var (
		file    model.File
		content model.FileContent
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&file).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}

			return fmt.Errorf("load file %s: %w", id, err)
		}

		if err := tx.Where("id = ?", id).Delete(&model.File{}).Error; err != nil {
			return fmt.Errorf("delete file %s: %w", id, err)
		}

		if err := decrementRef(tx, file.ContentID); err != nil {
			return err
		}

		return tx.Where("id = ?", file.ContentID).Take(&content).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			tracing.RecordError(span, err)
		}

		return err
	}

	metrics.DeletesTotal.Inc()

	removed := false
	if content.ReferenceCount <= 0 {
		removed, err = s.removeContent(ctx, content, true)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("content_id", content.ID).Msg("content left for orphan cleanup")
		}
	}

	s.invalidate(ctx)
	s.publishDeleted(ctx, file, content, removed)

	log.Ctx(ctx).Info().
		Str("file_id", file.ID).
		Str("content_id", content.ID).
		Bool("content_removed", removed).
		Msg("file deleted")

	return nil
}

func decrementRef(tx *gorm.DB, contentID string) error {
	err := tx.Model(&model.FileContent{}).
		Where("id = ?", contentID).
		UpdateColumn("reference_count", gorm.Expr("reference_count - 1")).Error
	if err != nil {
		return fmt.Errorf("decrement reference: %w", err)
	}

	return nil
}

// releaseContent 归还一次引用，归零时删除内容.
func (s *FileService) releaseContent(ctx context.Context, contentID string) (bool, error) {
	var content model.FileContent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := decrementRef(tx, contentID); err != nil {
			return err
		}

		return tx.Where("id = ?", contentID).Take(&content).Error
	})
	if err != nil {
		return false, err
	}

	if content.ReferenceCount > 0 {
		return false, nil
	}

	return s.removeContent(ctx, content, true)
}

// removeContent 删除引用归零的内容：先删 blob，再按旧键条件删行.
// 行在此期间被新上传复活时，object_key 已变化，行保留.
func (s *FileService) removeContent(ctx context.Context, content model.FileContent, notify bool) (bool, error) {
	if err := s.blobs.DeleteBlob(ctx, content.ObjectKey); err != nil {
		if notify {
			s.publishOrphaned(ctx, content, err)
		}

		return false, fmt.Errorf("delete blob %s: %w", content.ObjectKey, err)
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND reference_count <= 0 AND object_key = ?", content.ID, content.ObjectKey).
		Delete(&model.FileContent{})
	if res.Error != nil {
		return false, fmt.Errorf("delete content %s: %w", content.ID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// CleanupOrphans 删除所有引用归零的内容及其 blob，返回删除数量.
// 单个失败不影响其它内容，错误合并返回.
func (s *FileService) CleanupOrphans(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "FileService.CleanupOrphans")
	defer span.End()

	var orphans []model.FileContent
	if err := s.db.WithContext(ctx).Where("reference_count <= 0").Find(&orphans).Error; err != nil {
		return 0, fmt.Errorf("list orphan contents: %w", err)
	}

	var (
		removed int
		errs    []error
	)

	for _, c := range orphans {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		ok, err := s.removeContent(ctx, c, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if ok {
			removed++
		}
	}

	metrics.OrphansCleaned.Add(float64(removed))

	err := errors.Join(errs...)
	if err != nil {
		tracing.RecordError(span, err)
	}

	return removed, err
}

// RemoveOrphan 重试删除单个内容，内容已不存在或已被重新引用时返回 false.
func (s *FileService) RemoveOrphan(ctx context.Context, contentID string) (bool, error) {
	var content model.FileContent

	err := s.db.WithContext(ctx).Where("id = ?", contentID).Take(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("load content %s: %w", contentID, err)
	}

	if content.ReferenceCount > 0 {
		return false, nil
	}

	removed, err := s.removeContent(ctx, content, false)
	if removed {
		metrics.OrphansCleaned.Inc()
	}

	return removed, err
}
