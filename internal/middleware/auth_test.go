package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lostfound/internal/model"
)

// mockVerifier はTokenVerifierのモック実装。
type mockVerifier struct {
	verifyFunc func(tokenString string) (*model.Identity, error)
}

func (m *mockVerifier) Verify(tokenString string) (*model.Identity, error) {
	return m.verifyFunc(tokenString)
}

// 有効なBearerトークンでユーザー情報がコンテキストに注入されることを検証
func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(token string) (*model.Identity, error) {
			if token != "valid-token" {
				return nil, fmt.Errorf("invalid token")
			}
			return &model.Identity{UserID: "u1", Name: "Taro"}, nil
		},
	}

	var gotIdentity *model.Identity
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Errorf("IdentityFromContext returned error: %v", err)
		}
		gotIdentity = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotIdentity == nil || gotIdentity.UserID != "u1" {
		t.Errorf("identity = %+v, want UserID u1", gotIdentity)
	}
}

// ヘッダー欠落・形式不正・検証失敗のすべてで401が返ることを検証
func TestAuthMiddleware_Unauthorized(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(token string) (*model.Identity, error) {
			return nil, fmt.Errorf("invalid token")
		},
	}

	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"ヘッダーなし", ""},
		{"Bearerプレフィックスなし", "valid-token"},
		{"トークン部が空", "Bearer "},
		{"検証失敗", "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Code != model.ErrCodeUnauthorized {
				t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
		})
	}
}

// コンテキストにユーザー情報がない場合にエラーとなることを検証
func TestIdentityFromContext_Missing(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); err == nil {
		t.Error("expected error for context without identity")
	}
}

// ContextWithIdentityで注入した情報が取得できることを検証
func TestContextWithIdentity(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &model.Identity{UserID: "u1", Name: "Taro"})

	identity, err := IdentityFromContext(ctx)
	if err != nil {
		t.Fatalf("IdentityFromContext returned error: %v", err)
	}
	if identity.UserID != "u1" || identity.Name != "Taro" {
		t.Errorf("identity = %+v, want UserID u1 / Name Taro", identity)
	}
}
