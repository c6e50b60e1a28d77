// Package model はドメインモデルを定義する。
package model

import "time"

// ItemType は届け出の種別（紛失/拾得）を表す。
type ItemType string

const (
	// ItemTypeLost は紛失物の届け出を表す。
	ItemTypeLost ItemType = "lost"
	// ItemTypeFound は拾得物の届け出を表す。
	ItemTypeFound ItemType = "found"
)

// Valid は種別が定義済みの値であるかを返す。
func (t ItemType) Valid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// Item は紛失物・拾得物の届け出を表す。
// UserIDは作成後に変更されない所有者参照。
type Item struct {
	ID          string
	UserID      string
	Name        string
	Location    string
	Description string
	Type        ItemType
	Date        time.Time
	Phone       string // 任意。届け出単位の連絡先上書き。
	ImageURL    string // 任意。画像ホスティング先のURL。
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemWithOwner は届け出と所有者の表示名を結合したモデル。
// usersテーブルとJOINして取得される（公開一覧用）。
type ItemWithOwner struct {
	Item
	OwnerName string
}

// ContactInfo は届け出所有者への連絡先情報を表す。
// Phoneは届け出単位の上書きを優先し、未設定ならプロフィールの電話番号を使う。
type ContactInfo struct {
	OwnerName string
	Phone     string
	Email     string
}
