// Package imagestore は届け出画像の保存先抽象を提供する。
package imagestore

import (
	"context"
	"io"
)

// ImageStore は画像の保存機能のインターフェースを定義する。
// 保存に成功した場合、クライアントがそのまま参照できる公開URLを返す。
type ImageStore interface {
	// Save は画像データを保存し、公開URLを返す。
	// prefixはファイル名の先頭に使う識別子（ユーザーIDなど）。
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (url string, err error)
}

// UploadRecorder は画像アップロードのメトリクス記録先。
// metrics.Collectorの部分集合として定義する。
type UploadRecorder interface {
	RecordImageUpload(backend string)
}

// instrumentedStore は保存成功時にメトリクスを記録するImageStoreのデコレータ。
type instrumentedStore struct {
	inner    ImageStore
	backend  string
	recorder UploadRecorder
}

// WithMetrics は保存成功をbackendラベル付きで記録するImageStoreを返す。
// recorderがnilの場合はinnerをそのまま返す。
func WithMetrics(inner ImageStore, backend string, recorder UploadRecorder) ImageStore {
	if recorder == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, backend: backend, recorder: recorder}
}

func (s *instrumentedStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	url, err := s.inner.Save(ctx, prefix, mimeType, r)
	if err != nil {
		return "", err
	}
	s.recorder.RecordImageUpload(s.backend)
	return url, nil
}

// MimeTypeToExt はMIMEタイプから保存時の拡張子を決める。
// 未知のタイプはjpegとして扱う。
func MimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
