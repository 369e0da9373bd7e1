// Package s3 处理对象存储操作，文件内容按 blob key 保存在单个 bucket 中.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/filevault/pkg/configs"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client

	cfg configs.S3Config
}

// normalizeEndpoint 允许配置完整 URL（http:// 或 https://），返回 host 与是否启用 TLS.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host, u.Scheme == "https" || useSSL
	}

	return endpoint, useSSL
}

// New 初始化 MinIO 客户端，bucket 不存在时创建.
func New(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	endpoint, secure := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	cfg.UseSSL = secure

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, cfg: cfg}, nil
}

// StoreBlob 上传对象，size 未知时传 -1.
func (c *Client) StoreBlob(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.cfg.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// DeleteBlob 删除对象，对象不存在不视为错误.
func (c *Client) DeleteBlob(ctx context.Context, key string) error {
	err := c.RemoveObject(ctx, c.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil
		}

		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// BlobURL 生成预签名下载链接，filename 非空时作为下载文件名.
func (c *Client) BlobURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = c.cfg.PresignExpiry
	}

	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}

	u, err := c.PresignedGetObject(ctx, c.cfg.BucketName, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}

	return u.String(), nil
}

// HealthCheck 检查 bucket 是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.cfg.BucketName)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s not found", c.cfg.BucketName)
	}

	return nil
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

// Config 返回客户端使用的配置.
func (c *Client) Config() configs.S3Config {
	return c.cfg
}
