package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

func (s *FileService) publishUploaded(ctx context.Context, file model.File, content model.FileContent, dedup bool) {
	if s.pub == nil || !s.events.Enabled || !s.events.File.Uploaded {
		return
	}

	err := queue.PublishFileUploaded(s.pub, queue.FileUploadedPayload{
		FileID:           file.ID,
		OriginalFilename: file.OriginalFilename,
		FileType:         file.FileType,
		Content:          contentRef(content),
		WasDeduplicated:  dedup,
		ReferenceCount:   content.ReferenceCount,
	}, headerOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("topic", queue.TopicFileUploaded).Msg("publish event")
	}
}

func (s *FileService) publishDeleted(ctx context.Context, file model.File, content model.FileContent, removed bool) {
	if s.pub == nil || !s.events.Enabled || !s.events.File.Deleted {
		return
	}

	err := queue.PublishFileDeleted(s.pub, queue.FileDeletedPayload{
		FileID:           file.ID,
		OriginalFilename: file.OriginalFilename,
		Content:          contentRef(content),
		ContentRemoved:   removed,
	}, headerOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("topic", queue.TopicFileDeleted).Msg("publish event")
	}
}

func (s *FileService) publishOrphaned(ctx context.Context, content model.FileContent, cause error) {
	if s.pub == nil || !s.events.Enabled || !s.events.File.Orphaned {
		return
	}

	err := queue.PublishContentOrphaned(s.pub, queue.ContentOrphanedPayload{
		Content: contentRef(content),
		Error:   cause.Error(),
	}, headerOpts(ctx)...)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("topic", queue.TopicContentOrphaned).Msg("publish event")
	}
}

func contentRef(c model.FileContent) queue.ContentRef {
	return queue.ContentRef{
		ContentID:   c.ID,
		ContentHash: c.ContentHash,
		ObjectKey:   c.ObjectKey,
		Size:        c.Size,
	}
}

func headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(configs.AppName)}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

// invalidate 写操作之后使查询缓存换代.
func (s *FileService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("invalidate query cache")
	}
}
