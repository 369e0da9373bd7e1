package service

import (
	"context"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/tracing"
)

// spooled 已读完并计算过哈希的上传内容.
type spooled struct {
	body    io.Reader
	size    int64
	hash    string
	cleanup func()
}

// Upload 保存一个文件. 内容按 SHA-256 去重，相同内容只在对象存储中保留一份.
// size 小于 0 表示未知.
func (s *FileService) Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (*types.UploadResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "FileService.Upload")
	defer span.End()

	if size > s.upload.MaxSize {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrFileTooLarge, size, s.upload.MaxSize)
	}

	sp, err := s.spool(r)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile) {
			metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			tracing.RecordError(span, err)
		}

		return nil, err
	}
	defer sp.cleanup()

	if contentType == "" {
		contentType = DefaultFileType
	}

	content, dedup, err := s.acquireContent(ctx, sp, path.Ext(name), contentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		tracing.RecordError(span, err)

		return nil, err
	}

	file := model.File{
		ContentID:        content.ID,
		OriginalFilename: name,
		FileType:         contentType,
		Size:             content.Size,
		UploadedAt:       s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&file).Error; err != nil {
		// 回滚本次占用的引用
		if _, relErr := s.releaseContent(ctx, content.ID); relErr != nil {
			log.Ctx(ctx).Warn().Err(relErr).Str("content_id", content.ID).Msg("release content after failed upload")
		}

		metrics.UploadsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		tracing.RecordError(span, err)

		return nil, fmt.Errorf("create file record: %w", err)
	}

	if dedup {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
	} else {
		metrics.UploadsTotal.WithLabelValues(metrics.ResultCreated).Inc()
		metrics.UploadBytes.Add(float64(content.Size))
	}

	s.invalidate(ctx)
	s.publishUploaded(ctx, file, content, dedup)

	log.Ctx(ctx).Info().
		Str("file_id", file.ID).
		Str("content_hash", content.ContentHash).
		Bool("deduplicated", dedup).
		Int64("size", content.Size).
		Msg("file uploaded")

	var saved int64
	if dedup {
		saved = content.Size
	}

	return &types.UploadResponse{
		FileView: s.toView(file, content.ReferenceCount),
		UploadDetails: types.UploadDetails{
			WasDeduplicated: dedup,
			ContentHash:     shortHash(content.ContentHash),
			StorageSaved:    saved,
		},
	}, nil
}

// spool 读完上传内容并计算哈希. 可 Seek 的输入直接回绕，否则写入临时文件.
func (s *FileService) spool(r io.Reader) (*spooled, error) {
	h := sha256.New()
	limited := io.LimitReader(r, s.upload.MaxSize+1)

	if rs, ok := r.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("seek upload: %w", err)
		}

		n, err := io.Copy(h, limited)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}

		if err := checkSize(n, s.upload.MaxSize); err != nil {
			return nil, err
		}

		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}

		return &spooled{
			body:    io.LimitReader(rs, n),
			size:    n,
			hash:    hex.EncodeToString(h.Sum(nil)),
			cleanup: func() {},
		}, nil
	}

	tmp, err := os.CreateTemp("", "filevault-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	n, err := io.Copy(io.MultiWriter(h, tmp), limited)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	if err := checkSize(n, s.upload.MaxSize); err != nil {
		cleanup()
		return nil, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, fmt.Errorf("rewind spool file: %w", err)
	}

	return &spooled{body: tmp, size: n, hash: hex.EncodeToString(h.Sum(nil)), cleanup: cleanup}, nil
}

func checkSize(n, limit int64) error {
	if n == 0 {
		return ErrEmptyFile
	}

	if n > limit {
		return fmt.Errorf("%w: exceeds limit %d", ErrFileTooLarge, limit)
	}

	return nil
}

// acquireContent 为哈希取得一份内容引用，返回的内容已计入本次引用.
//
// 顺序：已有且在用的内容直接加一；否则先写 blob，再复活引用归零的行，最后新建行.
// 新建遇到唯一键冲突说明并发上传了相同内容，改为加一并删除刚写入的 blob.
func (s *FileService) acquireContent(ctx context.Context, sp *spooled, ext, contentType string) (model.FileContent, bool, error) {
	var content model.FileContent

	db := s.db.WithContext(ctx)

	hit, err := s.incrementRef(ctx, sp.hash)
	if err != nil {
		return content, false, err
	}

	if hit {
		if err := db.Where("content_hash = ?", sp.hash).Take(&content).Error; err != nil {
			return content, false, fmt.Errorf("load content: %w", err)
		}

		return content, true, nil
	}

	key := s.objectKey(ext)
	if err := s.blobs.StoreBlob(ctx, key, sp.body, sp.size, contentType); err != nil {
		return content, false, err
	}

	revived, err := s.reviveContent(ctx, sp, key)
	if err != nil {
		s.discardBlob(ctx, key)
		return content, false, err
	}

	if revived != nil {
		return *revived, false, nil
	}

	content = model.FileContent{
		ContentHash:    sp.hash,
		ObjectKey:      key,
		Size:           sp.size,
		ReferenceCount: 1,
	}

	createErr := db.Create(&content).Error
	if createErr == nil {
		return content, false, nil
	}

	// 并发上传了相同内容
	s.discardBlob(ctx, key)

	hit, err = s.incrementRef(ctx, sp.hash)
	if err != nil || !hit {
		return content, false, fmt.Errorf("create content: %w", createErr)
	}

	content = model.FileContent{}
	if err := db.Where("content_hash = ?", sp.hash).Take(&content).Error; err != nil {
		return content, false, fmt.Errorf("load content: %w", err)
	}

	return content, true, nil
}

// incrementRef 引用仍在用的内容，返回是否命中.
func (s *FileService) incrementRef(ctx context.Context, hash string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.FileContent{}).
		Where("content_hash = ? AND reference_count > 0", hash).
		UpdateColumn("reference_count", gorm.Expr("reference_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment reference: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// reviveContent 复用引用已归零但尚未删除的行，指向新写入的 blob. 旧 blob 尽力删除.
func (s *FileService) reviveContent(ctx context.Context, sp *spooled, key string) (*model.FileContent, error) {
	db := s.db.WithContext(ctx)

	var old model.FileContent

	err := db.Where("content_hash = ? AND reference_count <= 0", sp.hash).Take(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load orphan content: %w", err)
	}

	res := db.Model(&model.FileContent{}).
		Where("id = ? AND reference_count <= 0 AND object_key = ?", old.ID, old.ObjectKey).
		Updates(map[string]any{
			"object_key":      key,
			"size":            sp.size,
			"reference_count": 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("revive content: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, nil
	}

	s.discardBlob(ctx, old.ObjectKey)

	old.ObjectKey = key
	old.Size = sp.size
	old.ReferenceCount = 1

	return &old, nil
}

// discardBlob 删除不再被任何行引用的 blob，失败只记录日志.
func (s *FileService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.DeleteBlob(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("object_key", key).Msg("discard blob")
	}
}

// objectKey 生成 blob 键：<dir>/<ulid><ext>.
func (s *FileService) objectKey(ext string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), crand.Reader).String()

	return path.Join(s.upload.ObjectDir, strings.ToLower(id)+strings.ToLower(ext))
}
