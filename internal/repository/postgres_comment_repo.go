package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lostfound/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
// 参照先届け出の存在チェックは行わない（届け出削除後もコメントを履歴として残す仕様）。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, item_id, user_id, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.ItemID, comment.UserID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, item_id, user_id, text, created_at FROM comments WHERE id = $1`,
		id,
	).Scan(&comment.ID, &comment.ItemID, &comment.UserID, &comment.Text, &comment.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}

	return comment, nil
}

// ListByItemID は指定届け出のコメント一覧を投稿者情報付きで返す。
// 作成日時の降順（新しい順）は一覧APIの明示的な契約。
func (r *PostgresCommentRepo) ListByItemID(ctx context.Context, itemID string) ([]model.CommentWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.item_id, c.user_id, c.text, c.created_at, u.name, u.email
		 FROM comments c
		 JOIN users u ON c.user_id = u.id
		 WHERE c.item_id = $1
		 ORDER BY c.created_at DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithOwner
	for rows.Next() {
		var cwo model.CommentWithOwner
		if err := rows.Scan(
			&cwo.ID, &cwo.ItemID, &cwo.UserID, &cwo.Text, &cwo.CreatedAt,
			&cwo.OwnerName, &cwo.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		comments = append(comments, cwo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}

	return comments, nil
}

// DeleteByID は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
