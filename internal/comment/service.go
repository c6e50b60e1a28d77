// Package comment は届け出に対するコメントのビジネスロジックを提供する。
package comment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
	"github.com/hitoshi/lostfound/internal/security"
)

// Notifier はコメントイベントの通知インターフェース。
// event.Notifierの部分集合として定義する。
type Notifier interface {
	NotifyNewComment(comment *model.Comment, excludeConnectionID string)
}

// Metrics はコメント作成のメトリクス記録先。
// metrics.Collectorの部分集合として定義する。
type Metrics interface {
	RecordCommentCreated()
}

// Service はコメントの作成・一覧・削除を提供する。
type Service struct {
	comments  repository.CommentRepository
	sanitizer security.ContentSanitizerService
	notifier  Notifier
	metrics   Metrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(comments repository.CommentRepository, sanitizer security.ContentSanitizerService, notifier Notifier, metrics Metrics) *Service {
	return &Service{
		comments:  comments,
		sanitizer: sanitizer,
		notifier:  notifier,
		metrics:   metrics,
	}
}

// CreateInput はコメント作成の入力。
type CreateInput struct {
	ItemID string
	Text   string

	// ConnectionID は投稿元クライアントのライブ接続ID。
	// 通知の送信元除外に使う。空の場合は全接続に通知する。
	ConnectionID string
}

// Create はコメントを作成する。
// 本文は前後の空白を除去し、空のコメントは受け付けない。
// 参照先届け出の存在チェックは行わない（削除済み届け出へのコメントも履歴として許容）。
// 作成成功後、ライブ接続へnewCommentイベントを通知する（ベストエフォート）。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Comment, error) {
	itemID := strings.TrimSpace(input.ItemID)
	text := strings.TrimSpace(input.Text)

	if itemID == "" {
		return nil, model.NewValidationError("届け出IDは必須です")
	}
	if text == "" {
		return nil, model.NewValidationError("コメント本文は必須です")
	}

	comment := &model.Comment{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		UserID:    userID,
		Text:      s.sanitizer.Sanitize(text),
		CreatedAt: time.Now(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCommentCreated()
	}
	s.notifier.NotifyNewComment(comment, input.ConnectionID)

	return comment, nil
}

// ListByItem は指定届け出のコメント一覧を新しい順で返す（公開閲覧用）。
// 届け出が存在しない場合も空一覧を返す。
func (s *Service) ListByItem(ctx context.Context, itemID string) ([]model.CommentWithOwner, error) {
	return s.comments.ListByItemID(ctx, itemID)
}

// Delete はコメントを削除する。
// 存在しないコメントは未検出エラー、投稿者以外の削除は権限エラーを返す。
// 存在チェックを投稿者チェックより先に行う。
func (s *Service) Delete(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return model.NewCommentNotFoundError(commentID)
	}
	if comment.UserID != userID {
		return model.NewForbiddenError()
	}

	return s.comments.DeleteByID(ctx, commentID)
}
