// Package s3 はS3互換オブジェクトストレージへの画像保存を提供する。
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hitoshi/lostfound/internal/imagestore"
)

// Config はS3ImageStoreの接続設定。
type Config struct {
	Bucket        string
	Region        string
	AccessKey     string // 空の場合はデフォルトの認証情報チェーンを使う
	SecretKey     string
	Endpoint      string // S3互換ストレージ（MinIO等）のエンドポイント。空ならAWS標準
	PublicBaseURL string // 公開URLのプレフィックス。空ならAWS標準のURLを組み立てる
}

// S3ImageStore はS3互換ストレージに画像を保存するImageStore実装。
type S3ImageStore struct {
	client        *awss3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3ImageStore はS3ImageStoreを生成する。
func NewS3ImageStore(ctx context.Context, cfg Config) (*S3ImageStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO等はパス形式のバケットアクセスを要求する
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Save は画像データをバケットにアップロードし、公開URLを返す。
// オブジェクトキーは prefix/ナノ秒タイムスタンプ.拡張子。
func (s *S3ImageStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s/%d%s", prefix, time.Now().UnixNano(), imagestore.MimeTypeToExt(mimeType))

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to s3: %w", err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
