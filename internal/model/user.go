// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す閉じた列挙型。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。ユーザー管理画面にアクセスできる。
	RoleAdmin Role = "admin"
)

// Valid はRoleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin は管理者権限を持つかどうかを返す。
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// ユーザー情報（username/email/role）はセッション作成時点のスナップショットとして
// 非正規化して保持する。
type Session struct {
	ID        string
	UserID    int64
	Username  string
	Email     string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// FlashMessage はリダイレクトをまたいで1回だけ読めるワンショット通知。
// kindは"success"または"error"。
type FlashMessage struct {
	Kind    string
	Message string
}
