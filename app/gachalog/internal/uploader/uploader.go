// Package uploader 导出文件上传到 S3 兼容存储
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// ErrInvalidConfig 启用上传但缺少必要配置
var ErrInvalidConfig = errors.New("uploader: endpoint, access key, secret key and bucket are required")

// Config 上传配置
type Config struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key" json:"access_key" yaml:"access_key" validate:"required_if=Enabled true"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key" yaml:"secret_key" validate:"required_if=Enabled true"`
	Bucket    string `mapstructure:"bucket" json:"bucket" yaml:"bucket" validate:"required_if=Enabled true"`
	Region    string `mapstructure:"region" json:"region" yaml:"region"`
	UseSSL    bool   `mapstructure:"use_ssl" json:"use_ssl" yaml:"use_ssl"`
	// Prefix 对象名前缀
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
	// PublicURL 公开访问地址；PresignExpiry 为负时返回 <PublicURL>/<bucket>/<object>
	PublicURL string `mapstructure:"public_url" json:"public_url" yaml:"public_url"`
	// PresignExpiry 预签名下载链接有效期
	PresignExpiry time.Duration `mapstructure:"presign_expiry" json:"presign_expiry" yaml:"presign_expiry"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Region:        "us-east-1",
		Prefix:        "gachalogs",
		PresignExpiry: 24 * time.Hour,
		Timeout:       15 * time.Second,
	}
}

// Uploader 基于 minio-go 的上传器
type Uploader struct {
	cfg    *Config
	client *minio.Client
	logger logger.Logger
}

// New 创建上传器，未启用时返回 nil
func New(cfg *Config, l logger.Logger) (*Uploader, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge uploader config: %w", err)
	}
	if newCfg.Endpoint == "" || newCfg.AccessKey == "" || newCfg.SecretKey == "" || newCfg.Bucket == "" {
		return nil, ErrInvalidConfig
	}

	client, err := minio.New(newCfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(newCfg.AccessKey, newCfg.SecretKey, ""),
		Secure: newCfg.UseSSL,
		Region: newCfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	if newCfg.PublicURL == "" {
		scheme := "http"
		if newCfg.UseSSL {
			scheme = "https"
		}
		newCfg.PublicURL = fmt.Sprintf("%s://%s", scheme, newCfg.Endpoint)
	}
	newCfg.PublicURL = strings.TrimSuffix(newCfg.PublicURL, "/")

	return &Uploader{
		cfg:    newCfg,
		client: client,
		logger: logger.OrDefault(l).Named("uploader"),
	}, nil
}

// EnsureBucket 存储桶不存在时创建
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{Region: u.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	u.logger.InfoContext(ctx, "bucket created", "bucket", u.cfg.Bucket)
	return nil
}

// Upload 上传文件并返回下载链接
func (u *Uploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	object := path.Join(strings.Trim(u.cfg.Prefix, "/"), path.Base(name))

	ctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx, u.cfg.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", path.Base(name)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	u.logger.InfoContext(ctx, "file uploaded", "bucket", u.cfg.Bucket, "object", object, "size", len(data))

	if u.cfg.PresignExpiry <= 0 {
		return fmt.Sprintf("%s/%s/%s", u.cfg.PublicURL, u.cfg.Bucket, object), nil
	}
	link, err := u.client.PresignedGetObject(ctx, u.cfg.Bucket, object, u.cfg.PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", object, err)
	}
	return link.String(), nil
}
