// Package local はローカルファイルシステムへの画像保存を提供する。
package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hitoshi/lostfound/internal/imagestore"
)

// LocalImageStore はローカルディレクトリに画像を保存するImageStore実装。
// 保存先ディレクトリはHTTPサーバーが静的ファイルとして公開する前提。
type LocalImageStore struct {
	basePath string
	baseURL  string
}

// NewLocalImageStore はLocalImageStoreを生成する。保存先ディレクトリがなければ作成する。
// baseURLは公開URLのプレフィックス（例: /uploads）。
func NewLocalImageStore(basePath, baseURL string) (*LocalImageStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalImageStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save は画像データをディレクトリに書き込み、公開URLを返す。
// ファイル名は prefix_ナノ秒タイムスタンプ.拡張子 で衝突を避ける。
func (s *LocalImageStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	filename := fmt.Sprintf("%s_%d%s", sanitizePrefix(prefix), time.Now().UnixNano(), imagestore.MimeTypeToExt(mimeType))
	filePath := filepath.Join(s.basePath, filename)

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}

// Dir は保存先ディレクトリを返す。静的ファイル配信の設定に使う。
func (s *LocalImageStore) Dir() string {
	return s.basePath
}

// sanitizePrefix はファイル名に使えない文字を取り除く。
func sanitizePrefix(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, prefix)
}
