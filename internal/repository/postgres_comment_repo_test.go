package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// モックDBを張ったコメントリポジトリを生成する。
func newCommentRepoWithMock(t *testing.T) (*PostgresCommentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresCommentRepo(db), mock
}

// コメント一覧が作成日時の降順で問い合わせられ、行順のまま返ることを検証。
// 新しい順は一覧APIの明示的な契約であり、並べ替えはDBに任せている。
func TestPostgresCommentRepo_ListByItemID_NewestFirst(t *testing.T) {
	repo, mock := newCommentRepoWithMock(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "item_id", "user_id", "text", "created_at", "name", "email"}).
		AddRow("c3", "item-1", "u3", "三番目", base.Add(2*time.Hour), "Saburo", "saburo@example.com").
		AddRow("c2", "item-1", "u2", "二番目", base.Add(time.Hour), "Jiro", "jiro@example.com").
		AddRow("c1", "item-1", "u1", "一番目", base, "Taro", "taro@example.com")

	q := `(?s)^SELECT\s+c\.id,\s*c\.item_id,\s*c\.user_id,\s*c\.text,\s*c\.created_at,\s*u\.name,\s*u\.email\s+` +
		`FROM\s+comments\s+c\s+JOIN\s+users\s+u\s+ON\s+c\.user_id\s*=\s*u\.id\s+` +
		`WHERE\s+c\.item_id\s*=\s*\$1\s+ORDER\s+BY\s+c\.created_at\s+DESC$`
	mock.ExpectQuery(q).WithArgs("item-1").WillReturnRows(rows)

	got, err := repo.ListByItemID(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("ListByItemID failed: %v", err)
	}

	wantOrder := []string{"c3", "c2", "c1"}
	if len(got) != len(wantOrder) {
		t.Fatalf("comment count = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("comments[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("comments[%d] is newer than comments[%d]", i, i-1)
		}
	}
	if got[0].OwnerName != "Saburo" || got[0].OwnerEmail != "saburo@example.com" {
		t.Errorf("owner = (%q, %q), want (Saburo, saburo@example.com)", got[0].OwnerName, got[0].OwnerEmail)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// コメントのない届け出で空の一覧が返ることを検証
func TestPostgresCommentRepo_ListByItemID_Empty(t *testing.T) {
	repo, mock := newCommentRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "item_id", "user_id", "text", "created_at", "name", "email"})
	mock.ExpectQuery(`ORDER\s+BY\s+c\.created_at\s+DESC`).WithArgs("item-2").WillReturnRows(rows)

	got, err := repo.ListByItemID(context.Background(), "item-2")
	if err != nil {
		t.Fatalf("ListByItemID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("comment count = %d, want 0", len(got))
	}
}
