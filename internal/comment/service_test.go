package comment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

// mockCommentRepo はCommentRepositoryのモック実装。
type mockCommentRepo struct {
	createFunc       func(ctx context.Context, comment *model.Comment) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Comment, error)
	listByItemIDFunc func(ctx context.Context, itemID string) ([]model.CommentWithOwner, error)
	deleteByIDFunc   func(ctx context.Context, id string) error
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return m.createFunc(ctx, comment)
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockCommentRepo) ListByItemID(ctx context.Context, itemID string) ([]model.CommentWithOwner, error) {
	return m.listByItemIDFunc(ctx, itemID)
}

func (m *mockCommentRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// passthroughSanitizer は入力をそのまま返すサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

// mockNotifier は通知の呼び出しを記録する。
type mockNotifier struct {
	comments   []*model.Comment
	excludeIDs []string
}

func (m *mockNotifier) NotifyNewComment(comment *model.Comment, excludeConnectionID string) {
	m.comments = append(m.comments, comment)
	m.excludeIDs = append(m.excludeIDs, excludeConnectionID)
}

// 正常な入力でコメントが作成され、通知が送信されることを検証
func TestService_Create(t *testing.T) {
	var created *model.Comment
	repo := &mockCommentRepo{
		createFunc: func(_ context.Context, comment *model.Comment) error {
			created = comment
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewService(repo, passthroughSanitizer{}, notifier, nil)

	comment, err := svc.Create(context.Background(), "u1", CreateInput{
		ItemID:       "item-1",
		Text:         "  駅前の交番に届けました  ",
		ConnectionID: "conn-1",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil {
		t.Fatal("Create was not called on the repository")
	}
	if comment.Text != "駅前の交番に届けました" {
		t.Errorf("Text = %q, want trimmed", comment.Text)
	}
	if comment.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", comment.UserID)
	}
	if comment.ID == "" {
		t.Error("ID should be generated")
	}

	if len(notifier.comments) != 1 {
		t.Fatalf("notify count = %d, want 1", len(notifier.comments))
	}
	if notifier.excludeIDs[0] != "conn-1" {
		t.Errorf("excludeID = %q, want conn-1", notifier.excludeIDs[0])
	}
}

// 空白のみの本文や届け出ID欠落がバリデーションエラーとなることを検証
func TestService_Create_Validation(t *testing.T) {
	repo := &mockCommentRepo{
		createFunc: func(_ context.Context, _ *model.Comment) error {
			t.Error("Create should not be called")
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc := NewService(repo, passthroughSanitizer{}, notifier, nil)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"本文なし", CreateInput{ItemID: "item-1"}},
		{"空白のみの本文", CreateInput{ItemID: "item-1", Text: "   "}},
		{"届け出IDなし", CreateInput{Text: "見つけました"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	if len(notifier.comments) != 0 {
		t.Error("no notification should be sent for invalid input")
	}
}

// 一覧が新しい順で返ることを検証（順序はリポジトリの契約に委ねる）
func TestService_ListByItem(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stored := []model.CommentWithOwner{
		{Comment: model.Comment{ID: "c3", CreatedAt: base.Add(2 * time.Minute)}},
		{Comment: model.Comment{ID: "c2", CreatedAt: base.Add(time.Minute)}},
		{Comment: model.Comment{ID: "c1", CreatedAt: base}},
	}
	repo := &mockCommentRepo{
		listByItemIDFunc: func(_ context.Context, itemID string) ([]model.CommentWithOwner, error) {
			if itemID != "item-1" {
				t.Errorf("itemID = %q, want item-1", itemID)
			}
			return stored, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{}, &mockNotifier{}, nil)

	comments, err := svc.ListByItem(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("ListByItem returned error: %v", err)
	}

	wantOrder := []string{"c3", "c2", "c1"}
	if len(comments) != len(wantOrder) {
		t.Fatalf("comment count = %d, want %d", len(comments), len(wantOrder))
	}
	for i, want := range wantOrder {
		if comments[i].ID != want {
			t.Errorf("comments[%d].ID = %q, want %q", i, comments[i].ID, want)
		}
	}
}

// 存在しないコメントの削除は404、他人のコメントの削除は403となることを検証
func TestService_Delete_NotFoundBeforeForbidden(t *testing.T) {
	deleted := false
	repo := &mockCommentRepo{
		findByIDFunc: func(_ context.Context, id string) (*model.Comment, error) {
			switch id {
			case "owned-by-other":
				return &model.Comment{ID: id, UserID: "u2"}, nil
			case "mine":
				return &model.Comment{ID: id, UserID: "u1"}, nil
			}
			return nil, nil
		},
		deleteByIDFunc: func(_ context.Context, _ string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{}, &mockNotifier{}, nil)

	var apiErr *model.APIError
	err := svc.Delete(context.Background(), "u1", "missing")
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCommentNotFound {
		t.Errorf("expected comment not found error, got %v", err)
	}

	err = svc.Delete(context.Background(), "u1", "owned-by-other")
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("expected forbidden error, got %v", err)
	}
	if deleted {
		t.Error("DeleteByID should not be called for other user's comment")
	}

	if err := svc.Delete(context.Background(), "u1", "mine"); err != nil {
		t.Errorf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Error("DeleteByID should be called for own comment")
	}
}

// mockMetrics はMetricsのモック実装。
type mockMetrics struct {
	created int
}

func (m *mockMetrics) RecordCommentCreated() { m.created++ }

// 作成成功時にメトリクスが記録されることを検証
func TestService_Create_RecordsMetrics(t *testing.T) {
	repo := &mockCommentRepo{
		createFunc: func(_ context.Context, _ *model.Comment) error { return nil },
	}
	metrics := &mockMetrics{}
	svc := NewService(repo, passthroughSanitizer{}, &mockNotifier{}, metrics)

	_, err := svc.Create(context.Background(), "u1", CreateInput{
		ItemID: "item-1",
		Text:   "改札前で見かけました",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if metrics.created != 1 {
		t.Errorf("recorded comment creations = %d, want 1", metrics.created)
	}
}
