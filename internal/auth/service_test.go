package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
)

// mockUserRepo はUserRepositoryのモック実装。
type mockUserRepo struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFunc(ctx, email)
}

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour))
}

// 正常な入力でユーザーが作成されることを検証
func TestService_Register(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFunc: func(_ context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Taro  ",
		Email:    " taro@example.com ",
		Password: "pass1234",
		Phone:    "090-0000-0000",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created == nil {
		t.Fatal("Create was not called")
	}
	if user.Name != "Taro" {
		t.Errorf("Name = %q, want trimmed %q", user.Name, "Taro")
	}
	if user.Email != "taro@example.com" {
		t.Errorf("Email = %q, want trimmed %q", user.Email, "taro@example.com")
	}
	if user.ID == "" {
		t.Error("ID should be generated")
	}
	if user.PasswordHash == "" || user.PasswordHash == "pass1234" {
		t.Error("password should be stored as a hash")
	}
	if !CheckPassword(user.PasswordHash, "pass1234") {
		t.Error("stored hash should match the original password")
	}
}

// 必須項目が欠けている場合にバリデーションエラーとなることを検証
func TestService_Register_Validation(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"名前なし", RegisterInput{Email: "a@example.com", Password: "p"}},
		{"メールなし", RegisterInput{Name: "Taro", Password: "p"}},
		{"パスワードなし", RegisterInput{Name: "Taro", Email: "a@example.com"}},
		{"空白のみの名前", RegisterInput{Name: "   ", Email: "a@example.com", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

// メールアドレス重複時に専用エラーが返ることを検証
func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		createFunc: func(_ context.Context, _ *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Taro",
		Email:    "taro@example.com",
		Password: "pass1234",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Errorf("expected email taken error, got %v", err)
	}
}

// 正しい認証情報でトークンとユーザーが返ることを検証
func TestService_Login(t *testing.T) {
	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	stored := &model.User{ID: "u1", Name: "Taro", Email: "taro@example.com", PasswordHash: hash}
	repo := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			if email != "taro@example.com" {
				return nil, nil
			}
			return stored, nil
		},
	}
	tokens := NewTokenManager("test-secret", time.Hour)
	svc := NewService(repo, tokens)

	token, user, err := svc.Login(context.Background(), "taro@example.com", "pass1234")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "u1")
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if identity.UserID != "u1" {
		t.Errorf("identity.UserID = %q, want %q", identity.UserID, "u1")
	}
}

// ユーザー不在とパスワード不一致で同じ未認証エラーが返ることを検証
func TestService_Login_Unauthorized(t *testing.T) {
	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			if email == "taro@example.com" {
				return &model.User{ID: "u1", PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(repo)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"存在しないユーザー", "unknown@example.com", "pass1234"},
		{"パスワード不一致", "taro@example.com", "wrong-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tt.email, tt.password)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
				t.Errorf("expected unauthorized error, got %v", err)
			}
		})
	}
}
