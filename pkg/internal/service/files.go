// Package service 实现文件库的业务逻辑：按内容去重的上传、筛选列表、删除与统计.
// 不处理 HTTP 细节.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
)

var (
	// ErrNotFound 文件不存在.
	ErrNotFound = errors.New("file not found")
	// ErrFileTooLarge 超过上传大小上限.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyFile 上传内容为空.
	ErrEmptyFile = errors.New("empty file")
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200

	// DefaultFileType 上传未提供 MIME 类型时使用.
	DefaultFileType = "application/octet-stream"

	topFileTypes = 10
	shortHashLen = 8
)

// BlobStore 对象存储，由 s3.Client 实现.
type BlobStore interface {
	StoreBlob(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	DeleteBlob(ctx context.Context, key string) error
	BlobURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
}

// FileService 负责文件相关业务逻辑.
type FileService struct {
	db        *gorm.DB
	blobs     BlobStore
	pub       message.Publisher
	cache     *cache.Cache
	cacheTTL  time.Duration
	upload    configs.UploadConfig
	events    configs.EventsConfig
	urlExpiry time.Duration
	now       func() time.Time
}

// Option 配置 FileService.
type Option func(*FileService)

// WithPublisher 设置事件发布者，nil 表示不发布.
func WithPublisher(pub message.Publisher) Option {
	return func(s *FileService) { s.pub = pub }
}

// WithCache 设置查询缓存，nil 表示不缓存.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *FileService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithUploadConfig 设置上传限制.
func WithUploadConfig(cfg configs.UploadConfig) Option {
	return func(s *FileService) { s.upload = cfg }
}

// WithEvents 设置事件开关.
func WithEvents(cfg configs.EventsConfig) Option {
	return func(s *FileService) { s.events = cfg }
}

// WithURLExpiry 设置预签名链接有效期.
func WithURLExpiry(d time.Duration) Option {
	return func(s *FileService) { s.urlExpiry = d }
}

// WithClock 替换时间来源.
func WithClock(now func() time.Time) Option {
	return func(s *FileService) { s.now = now }
}

// New 创建 FileService.
func New(db *gorm.DB, blobs BlobStore, opts ...Option) *FileService {
	s := &FileService{
		db:    db,
		blobs: blobs,
		upload: configs.UploadConfig{
			MaxSize:   configs.DefaultUploadMaxSize,
			ObjectDir: configs.DefaultUploadObjectDir,
		},
		urlExpiry: configs.DefaultS3PresignExpiry,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewFileService 从 context 中的存储管理器与全局配置组装服务.
func NewFileService(c context.Context) *FileService {
	dbc := ctxPkg.GetDBClient(c)
	s3c := ctxPkg.GetS3Client(c)

	// 依赖缺失属于启动错误，交给 gin 的 Recovery 处理
	if dbc == nil || dbc.DB == nil || s3c == nil {
		panic("storage clients not initialized")
	}

	cfg := configs.GetConfig()

	opts := []Option{
		WithUploadConfig(cfg.Upload),
		WithEvents(cfg.Events),
		WithURLExpiry(cfg.S3.PresignExpiry),
		WithCache(ctxPkg.GetCache(c), cfg.Cache.TTL),
	}

	if mqc := ctxPkg.GetMQClient(c); mqc != nil {
		opts = append(opts, WithPublisher(mqc.Publisher()))
	}

	return New(dbc.DB, s3c, opts...)
}
