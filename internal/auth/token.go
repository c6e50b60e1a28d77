// Package auth はトークンベース認証とユーザー登録・ログインを提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/lostfound/internal/model"
)

// Claims はトークンのクレームセット。
// 標準クレームに加えてユーザーIDと表示名を含む。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// TokenManager はHMAC署名トークンの発行と検証を行う。
// 検証は署名と有効期限のみで完結する純粋な判定であり、ストア参照を行わない。
// 失効リストは持たないため、発行済みトークンは期限まで有効（仕様上の制約）。
type TokenManager struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, maxAge time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// Issue はユーザーIDと表示名を含む署名済みトークンを発行する。
func (m *TokenManager) Issue(userID, name string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
		UserID: userID,
		Name:   name,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークン文字列を検証し、認証済みユーザー情報を返す。
// 署名不正・期限切れ・形式不正のいずれもエラーとなる。
// 署名アルゴリズムはHS256のみ許可する。
func (m *TokenManager) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &model.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
	}, nil
}
