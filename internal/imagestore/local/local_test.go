package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hitoshi/lostfound/internal/imagestore"
)

var _ imagestore.ImageStore = (*LocalImageStore)(nil)

// 保存した画像がディレクトリに書き込まれ、公開URLが返ることを検証
func TestLocalImageStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalImageStore returned error: %v", err)
	}

	url, err := store.Save(context.Background(), "u1", "image/png", strings.NewReader("fake-png-data"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if !strings.HasPrefix(url, "/uploads/u1_") {
		t.Errorf("url = %q, want prefix /uploads/u1_", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want .png suffix", url)
	}

	filename := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("saved file not readable: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("file content = %q", data)
	}
}

// prefix中の危険な文字がファイル名から除去されることを検証
func TestLocalImageStore_Save_SanitizesPrefix(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir, "/uploads")
	if err != nil {
		t.Fatalf("NewLocalImageStore returned error: %v", err)
	}

	url, err := store.Save(context.Background(), "../evil", "image/jpeg", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if strings.Contains(url, "..") {
		t.Errorf("url %q should not contain path traversal", url)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	if strings.Contains(entries[0].Name(), "..") {
		t.Errorf("filename %q should not contain path traversal", entries[0].Name())
	}
}

// 存在しないディレクトリが作成されることを検証
func TestNewLocalImageStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewLocalImageStore(dir, "/uploads"); err != nil {
		t.Fatalf("NewLocalImageStore returned error: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory was not created: %v", err)
	}
}
