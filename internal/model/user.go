// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには含めない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string // 任意。空文字列は未設定を表す。
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は認証済みリクエストに紐付くユーザー情報を表す。
// トークン検証後にリクエストコンテキストへ注入される。
type Identity struct {
	UserID string
	Name   string
}
