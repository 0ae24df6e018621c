// Package user は管理者向けのユーザー管理ドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// PasswordHasher はパスワードハッシュ導出のインターフェース。
// 作成・更新時のハッシュは登録時と同じ方式を使う。
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Service はユーザー管理のサービス層。全操作が管理者ガードの内側で呼ばれる。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
	}
}

// List は検索・ページング・ソート条件付きでユーザー一覧と総件数を返す。
func (s *Service) List(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error) {
	return s.userRepo.List(ctx, q)
}

// Get は指定IDのユーザーを取得する。見つからない場合はnot_foundエラー。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Create は管理者操作でユーザーを作成する。検証とハッシュ方式は登録時と同一。
// roleが空の場合はuserになる。
func (s *Service) Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)

	var msgs []string
	if len(username) < 3 {
		msgs = append(msgs, "Username must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		msgs = append(msgs, "Invalid email address")
	}
	if len(password) < 6 {
		msgs = append(msgs, "Password must be at least 6 characters")
	}
	if len(msgs) > 0 {
		return nil, model.NewValidationError(msgs...)
	}

	if !role.Valid() {
		role = model.RoleUser
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user created by admin",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// Update はユーザー情報を更新する。passwordが空の場合はハッシュを変更しない。
func (s *Service) Update(ctx context.Context, id int64, username, email, password string, role model.Role) error {
	username = strings.TrimSpace(username)

	var msgs []string
	if username == "" {
		msgs = append(msgs, "Username is required")
	}
	if email == "" {
		msgs = append(msgs, "Email is required")
	}
	if len(msgs) > 0 {
		return model.NewValidationError(msgs...)
	}

	if !role.Valid() {
		role = model.RoleUser
	}

	user := &model.User{
		ID:       id,
		Username: username,
		Email:    email,
		Role:     role,
	}
	if password != "" {
		hashed, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	slog.Info("user updated by admin", slog.Int64("user_id", id))
	return nil
}

// Delete はユーザーを削除する。関連するセッションも併せて破棄する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user sessions: %w", err)
		}
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted by admin", slog.Int64("user_id", id))
	return nil
}

// Promote はユーザーのroleをadminに昇格させる。
// 既存セッションのroleスナップショットは次回ログインまで更新されない。
func (s *Service) Promote(ctx context.Context, id int64) error {
	if err := s.userRepo.UpdateRole(ctx, id, model.RoleAdmin); err != nil {
		return err
	}

	slog.Info("user promoted to admin", slog.Int64("user_id", id))
	return nil
}
