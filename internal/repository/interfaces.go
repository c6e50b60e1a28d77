// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/lostfound/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが重複している場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// ItemRepository は届け出データの永続化インターフェース。
type ItemRepository interface {
	// Create は届け出を作成する。
	Create(ctx context.Context, item *model.Item) error

	// FindByID は指定IDの届け出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// ListByUserID は指定ユーザーの届け出一覧を作成日時の昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Item, error)

	// ListAllWithOwner は全届け出を所有者の表示名付きで作成日時の昇順で返す。
	ListAllWithOwner(ctx context.Context) ([]model.ItemWithOwner, error)

	// Update は届け出を上書き更新する。所有者参照は変更しない。
	Update(ctx context.Context, item *model.Item) error

	// DeleteByID は指定IDの届け出を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	// 参照先届け出の存在チェックは行わない（履歴として残す仕様）。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByItemID は指定届け出のコメント一覧を投稿者情報付きで
	// 作成日時の降順（新しい順）で返す。
	ListByItemID(ctx context.Context, itemID string) ([]model.CommentWithOwner, error)

	// DeleteByID は指定IDのコメントを削除する。
	DeleteByID(ctx context.Context, id string) error
}
