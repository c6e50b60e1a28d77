// Package model はドメインモデルを定義する。
package model

import "time"

// Comment は届け出に対するコメントを表す。
// ItemIDとUserIDは作成後に変更されない。
// 参照先の届け出が削除されてもコメントは履歴として残る。
type Comment struct {
	ID        string
	ItemID    string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// CommentWithOwner はコメントと投稿者情報を結合したモデル。
// usersテーブルとJOINして取得される（一覧用）。
type CommentWithOwner struct {
	Comment
	OwnerName  string
	OwnerEmail string
}
