// Package item は紛失物・拾得物の届け出のビジネスロジックを提供する。
package item

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lostfound/internal/imagestore"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
	"github.com/hitoshi/lostfound/internal/security"
)

// Notifier は届け出イベントの通知インターフェース。
// event.Notifierの部分集合として定義する。
type Notifier interface {
	NotifyNewPost(item *model.Item, excludeConnectionID string)
}

// Metrics は届け出作成のメトリクス記録先。
// metrics.Collectorの部分集合として定義する。
type Metrics interface {
	RecordItemCreated(itemType string)
}

// Service は届け出のCRUDと画像アップロード、イベント通知を提供する。
type Service struct {
	items         repository.ItemRepository
	users         repository.UserRepository
	sanitizer     security.ContentSanitizerService
	images        imagestore.ImageStore
	notifier      Notifier
	uploadTimeout time.Duration
	metrics       Metrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	items repository.ItemRepository,
	users repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	images imagestore.ImageStore,
	notifier Notifier,
	uploadTimeout time.Duration,
	metrics Metrics,
) *Service {
	return &Service{
		items:         items,
		users:         users,
		sanitizer:     sanitizer,
		images:        images,
		notifier:      notifier,
		uploadTimeout: uploadTimeout,
		metrics:       metrics,
	}
}

// CreateInput は届け出作成の入力。
type CreateInput struct {
	Name        string
	Location    string
	Description string
	Type        string
	Date        *time.Time // nilの場合は現在時刻
	Phone       string

	Image         io.Reader // nilの場合は画像なし
	ImageMimeType string

	// ConnectionID は投稿元クライアントのライブ接続ID。
	// 通知の送信元除外に使う。空の場合は全接続に通知する。
	ConnectionID string
}

// Create は届け出を作成する。
// 画像が添付されている場合は先にアップロードし、公開URLを保存する。
// 作成成功後、ライブ接続へnewPostイベントを通知する（ベストエフォート）。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Item, error) {
	name := strings.TrimSpace(input.Name)
	location := strings.TrimSpace(input.Location)
	itemType := model.ItemType(input.Type)

	if name == "" {
		return nil, model.NewValidationError("アイテム名は必須です")
	}
	if location == "" {
		return nil, model.NewValidationError("場所は必須です")
	}
	if !itemType.Valid() {
		return nil, model.NewValidationError("種別はlostまたはfoundを指定してください")
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	imageURL := ""
	if input.Image != nil {
		url, err := s.uploadImage(ctx, userID, input)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	now := time.Now()
	item := &model.Item{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Location:    location,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(input.Description)),
		Type:        itemType,
		Date:        date,
		Phone:       strings.TrimSpace(input.Phone),
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordItemCreated(string(item.Type))
	}
	s.notifier.NotifyNewPost(item, input.ConnectionID)

	return item, nil
}

// uploadImage は添付画像をストレージに保存し、公開URLを返す。
// アップロードには専用のタイムアウトを適用する。
func (s *Service) uploadImage(ctx context.Context, userID string, input CreateInput) (string, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	url, err := s.images.Save(uploadCtx, userID, input.ImageMimeType, input.Image)
	if err != nil {
		return "", fmt.Errorf("画像のアップロードに失敗しました: %w", err)
	}

	slog.Info("item image uploaded",
		slog.String("user_id", userID),
		slog.String("url", url),
	)

	return url, nil
}

// ListMine は指定ユーザーの届け出一覧を作成日時の昇順で返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.Item, error) {
	return s.items.ListByUserID(ctx, userID)
}

// ListAll は全ユーザーの届け出一覧を所有者の表示名付きで返す（公開閲覧用）。
func (s *Service) ListAll(ctx context.Context) ([]model.ItemWithOwner, error) {
	return s.items.ListAllWithOwner(ctx)
}

// Get は指定IDの届け出を返す（公開閲覧用）。
func (s *Service) Get(ctx context.Context, itemID string) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	return item, nil
}

// UpdateInput は届け出の部分更新の入力。
// 空文字列のフィールドは「変更なし」として扱う。
type UpdateInput struct {
	Name        string
	Location    string
	Description string
	Type        string
	Date        *time.Time
	Phone       string
	ImageURL    string
}

// Update は届け出を部分更新する。
// 存在しない届け出は未検出エラー、所有者以外の更新は権限エラーを返す。
// 存在チェックを所有者チェックより先に行うため、他人の届け出IDを知っていても
// 存在有無以上の情報は得られない。
func (s *Service) Update(ctx context.Context, userID, itemID string, input UpdateInput) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	if item.UserID != userID {
		return nil, model.NewForbiddenError()
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		item.Name = name
	}
	if location := strings.TrimSpace(input.Location); location != "" {
		item.Location = location
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		item.Description = s.sanitizer.Sanitize(description)
	}
	if input.Type != "" {
		itemType := model.ItemType(input.Type)
		if !itemType.Valid() {
			return nil, model.NewValidationError("種別はlostまたはfoundを指定してください")
		}
		item.Type = itemType
	}
	if input.Date != nil {
		item.Date = *input.Date
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		item.Phone = phone
	}
	if imageURL := strings.TrimSpace(input.ImageURL); imageURL != "" {
		item.ImageURL = imageURL
	}
	item.UpdatedAt = time.Now()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Delete は届け出を削除する。
// 存在チェックを所有者チェックより先に行う（Updateと同じ方針）。
// 紐づくコメントは削除しない（やり取りの履歴として残す）。
func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return model.NewItemNotFoundError(itemID)
	}
	if item.UserID != userID {
		return model.NewForbiddenError()
	}

	return s.items.DeleteByID(ctx, itemID)
}

// Contact は届け出所有者への連絡先情報を返す。
// 電話番号は届け出単位の上書きを優先し、未設定ならプロフィールの番号を使う。
func (s *Service) Contact(ctx context.Context, itemID string) (*model.ContactInfo, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	owner, err := s.users.FindByID(ctx, item.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError()
	}

	phone := item.Phone
	if phone == "" {
		phone = owner.Phone
	}

	return &model.ContactInfo{
		OwnerName: owner.Name,
		Phone:     phone,
		Email:     owner.Email,
	}, nil
}
