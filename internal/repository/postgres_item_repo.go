package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lostfound/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した届け出リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// itemColumns はitemsテーブルのSELECT対象カラム。
const itemColumns = `id, user_id, name, location, description, type, date, phone, image_url, created_at, updated_at`

// scanItem は1行分の届け出を読み取る。
func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	item := &model.Item{}
	var description, phone, imageURL sql.NullString

	if err := scan(
		&item.ID, &item.UserID, &item.Name, &item.Location, &description,
		&item.Type, &item.Date, &phone, &imageURL,
		&item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Description = nullStringValue(description)
	item.Phone = nullStringValue(phone)
	item.ImageURL = nullStringValue(imageURL)
	return item, nil
}

// Create は届け出を作成する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, name, location, description, type, date,
		                    phone, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.UserID, item.Name, item.Location,
		nullString(item.Description), string(item.Type), item.Date,
		nullString(item.Phone), nullString(item.ImageURL),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("届け出の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの届け出を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("届け出の取得に失敗しました: %w", err)
	}
	return item, nil
}

// ListByUserID は指定ユーザーの届け出一覧を作成日時の昇順で返す。
// 一覧の並び順は作成順を明示的な契約とする。
func (r *PostgresItemRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("届け出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("届け出行の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("届け出一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// ListAllWithOwner は全届け出を所有者の表示名付きで作成日時の昇順で返す。
// 公開一覧用の読み取り専用JOIN。
func (r *PostgresItemRepo) ListAllWithOwner(ctx context.Context) ([]model.ItemWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.user_id, i.name, i.location, i.description, i.type, i.date,
		        i.phone, i.image_url, i.created_at, i.updated_at, u.name
		 FROM items i
		 JOIN users u ON i.user_id = u.id
		 ORDER BY i.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("公開届け出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []model.ItemWithOwner
	for rows.Next() {
		var iwo model.ItemWithOwner
		var description, phone, imageURL sql.NullString

		if err := rows.Scan(
			&iwo.ID, &iwo.UserID, &iwo.Name, &iwo.Location, &description,
			&iwo.Type, &iwo.Date, &phone, &imageURL,
			&iwo.CreatedAt, &iwo.UpdatedAt, &iwo.OwnerName,
		); err != nil {
			return nil, fmt.Errorf("公開届け出行の読み取りに失敗しました: %w", err)
		}

		iwo.Description = nullStringValue(description)
		iwo.Phone = nullStringValue(phone)
		iwo.ImageURL = nullStringValue(imageURL)
		items = append(items, iwo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("公開届け出一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// Update は届け出を上書き更新する。所有者参照（user_id）は変更しない。
func (r *PostgresItemRepo) Update(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET
		    name = $2, location = $3, description = $4, type = $5,
		    date = $6, phone = $7, image_url = $8, updated_at = $9
		 WHERE id = $1`,
		item.ID, item.Name, item.Location, nullString(item.Description),
		string(item.Type), item.Date, nullString(item.Phone),
		nullString(item.ImageURL), item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("届け出の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの届け出を削除する。
// 関連コメントは削除しない（履歴として残す）。
func (r *PostgresItemRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("届け出の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
