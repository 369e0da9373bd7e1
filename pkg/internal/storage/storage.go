// Package storage 聚合文件服务依赖的存储资源：元数据库、对象存储、KV 缓存与消息队列.
//
// 数据库与对象存储是必需的；KV 与 MQ 初始化失败时降级运行（不缓存、不发布事件）.
//
// Example:
//
//	mgr, err := storage.New(ctx, configs.GetConfig())
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	dbc "github.com/yeisme/filevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/filevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB    *dbc.Client
	S3    *s3c.Client
	KV    *kvc.Client
	MQ    *mqc.Client
	Cache *cache.Cache
}

// New 按配置初始化全部存储资源.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	if cfg.Metrics.Enabled {
		if err := dbi.RegisterGORMMetrics(); err != nil {
			nlog.Logger().Warn().Err(err).Msg("GORM metrics 注册失败")
		}
	}

	s3i, err := s3c.New(ctx, cfg.S3)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	m.S3 = s3i

	if cfg.Cache.Enabled {
		kvi, err := kvc.New(ctx, cfg.KV)
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("type", cfg.KV.Type).Msg("KV 初始化失败，查询缓存已禁用")
		} else {
			m.KV = kvi
			m.Cache = cache.NewCache(kvi, cfg.Cache.Prefix)
		}
	}

	if cfg.Events.Enabled || cfg.Jobs.OrphanConsumer {
		var opts []mqc.Option
		if cfg.Metrics.Enabled {
			opts = append(opts, mqc.WithMetricsRegistry(metrics.GetRegistry()))
		}

		mqi, err := mqc.New(ctx, cfg.MQ, opts...)
		if err != nil {
			nlog.Logger().Warn().Err(err).Str("type", string(cfg.MQ.Type)).Msg("MQ 初始化失败，事件发布已禁用")
		} else {
			m.MQ = mqi
		}
	}

	nlog.Logger().Info().
		Bool("cache", m.Cache != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client { return m.S3 }

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client { return m.DB }

// GetKVClient 获取 KV 客户端，未启用时为 nil.
func (m *Manager) GetKVClient() *kvc.Client { return m.KV }

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client { return m.MQ }

// GetCache 获取查询缓存，未启用时为 nil.
func (m *Manager) GetCache() *cache.Cache { return m.Cache }

// HealthCheck 检查各存储的连通性，返回组件名到错误的映射（nil 表示正常）.
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	res := map[string]error{}

	if m.DB != nil {
		res["db"] = m.DB.HealthCheck(ctx)
	}

	if m.S3 != nil {
		res["s3"] = m.S3.HealthCheck(ctx)
	}

	if m.KV != nil {
		_, err := m.KV.Exists(ctx, configs.AppName+":health")
		res["kv"] = err
	}

	return res
}

// Close 按初始化的逆序关闭资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
