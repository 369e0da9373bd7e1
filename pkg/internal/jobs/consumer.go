package jobs

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

const (
	defaultRetryMax      = 3
	defaultRetryInterval = time.Second
)

// OrphanRemover 重试删除单个内容，由 service.FileService 实现.
type OrphanRemover interface {
	RemoveOrphan(ctx context.Context, contentID string) (bool, error)
}

// OrphanConsumer 订阅 content.orphaned，删除失败的对象在这里重试.
// 重试用尽后丢弃消息，内容行仍保留，由定时清理兜底.
type OrphanConsumer struct {
	router  *message.Router
	remover OrphanRemover
}

// ConsumerOption 配置 OrphanConsumer.
type ConsumerOption func(*middleware.Retry)

// WithRetry 设置重试次数与初始间隔.
func WithRetry(maxRetries int, interval time.Duration) ConsumerOption {
	return func(r *middleware.Retry) {
		r.MaxRetries = maxRetries
		r.InitialInterval = interval
		r.MaxInterval = interval * 10
	}
}

// NewOrphanConsumer 创建消费者，调用 Run 后开始处理消息.
func NewOrphanConsumer(sub message.Subscriber, remover OrphanRemover, opts ...ConsumerOption) (*OrphanConsumer, error) {
	logger := mq.NewLoggerAdapter(log.Logger())

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, err
	}

	retry := middleware.Retry{
		MaxRetries:      defaultRetryMax,
		InitialInterval: defaultRetryInterval,
		MaxInterval:     10 * defaultRetryInterval,
		Multiplier:      2,
		Logger:          logger,
	}
	for _, opt := range opts {
		opt(&retry)
	}

	c := &OrphanConsumer{router: router, remover: remover}

	router.AddMiddleware(c.giveUp, middleware.Recoverer, retry.Middleware)
	router.AddNoPublisherHandler(HandlerOrphanRetry, queue.TopicContentOrphaned, sub, c.handle)

	return c, nil
}

func (c *OrphanConsumer) handle(msg *message.Message) error {
	env, err := queue.ParseContentOrphaned(msg)
	if err != nil {
		// 无法解析的消息重试也没有意义
		log.Logger().Warn().Err(err).Str("message_id", msg.UUID).Msg("drop malformed orphan event")
		return nil
	}

	ref := env.Payload.Content

	removed, err := c.remover.RemoveOrphan(msg.Context(), ref.ContentID)
	if err != nil {
		return err
	}

	log.Logger().Info().
		Str("content_id", ref.ContentID).
		Str("object_key", ref.ObjectKey).
		Bool("removed", removed).
		Msg("orphan event handled")

	return nil
}

// giveUp 在重试用尽后确认消息，避免无限重投.
func (c *OrphanConsumer) giveUp(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil {
			log.Logger().Warn().Err(err).Str("message_id", msg.UUID).Msg("orphan left for scheduled cleanup")
			return nil, nil
		}

		return msgs, nil
	}
}

// Run 阻塞处理消息直到 ctx 取消或 Close.
func (c *OrphanConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running 在路由器开始处理消息后关闭.
func (c *OrphanConsumer) Running() chan struct{} {
	return c.router.Running()
}

// Close 停止消费.
func (c *OrphanConsumer) Close() error {
	return c.router.Close()
}
