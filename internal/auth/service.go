package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
)

// Service はユーザー登録・ログインのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register は新規ユーザーを作成する。
// 名前・メールアドレス・パスワードは必須。メールアドレス重複は専用エラーを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if name == "" {
		return nil, model.NewValidationError("名前は必須です")
	}
	if email == "" {
		return nil, model.NewValidationError("メールアドレスは必須です")
	}
	if input.Password == "" {
		return nil, model.NewValidationError("パスワードは必須です")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, err
	}

	return user, nil
}

// Login は認証情報を検証し、署名済みトークンとユーザーを返す。
// ユーザー不在とパスワード不一致は区別せず、同じ未認証エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return "", nil, model.NewUnauthorizedError()
	}

	token, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	return token, user, nil
}
