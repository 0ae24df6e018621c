// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// Categoryがエラー種別のタグとして機能する: validation, conflict, not_found,
// auth, system。生のDBエラーコードを上位層で判別せず、ストレージ境界で
// このタグ付きエラーに変換する。
type APIError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けメッセージ
	Category string // カテゴリ: validation, conflict, not_found, auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDuplicateUser      = "DUPLICATE_USER"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAdminRequired      = "ADMIN_REQUIRED"
	ErrCodeCriteriaNotFound   = "CRITERIA_NOT_FOUND"
	ErrCodeAssessmentNotFound = "ASSESSMENT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ValidationError はフィールド単位の検証エラーの集まり。
// 元の入力は変更されず、メッセージ一覧をそのままユーザーに提示できる。
type ValidationError struct {
	Messages []string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError は検証エラーを生成する。
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// NewDuplicateUserError はusername/emailの一意制約違反エラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "Username or email already exists",
		Category: "conflict",
		Action:   "Choose a different username or email address.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// アカウント列挙を防ぐため、ユーザー不存在とパスワード不一致で同一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check your username and password, then try again.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "You must be logged in to access that page",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewAdminRequiredError は管理者権限不足エラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminRequired,
		Message:  "Admin access required",
		Category: "auth",
		Action:   "Contact an administrator if you need access.",
	}
}

// NewCriteriaNotFoundError は評価基準未検出エラーを生成する。
func NewCriteriaNotFoundError(criteriaID string) *APIError {
	return &APIError{
		Code:     ErrCodeCriteriaNotFound,
		Message:  fmt.Sprintf("Criteria not found: %s", criteriaID),
		Category: "not_found",
		Action:   "Reload the assessment form and try again.",
	}
}

// NewAssessmentNotFoundError は評価未検出エラーを生成する。
// 存在しないIDと他ユーザー所有のIDを区別しない。
func NewAssessmentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAssessmentNotFound,
		Message:  "Assessment not found",
		Category: "not_found",
		Action:   "Check the assessment ID.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "not_found",
		Action:   "Check the user ID.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はサーバーログのみに記録し、ユーザーには再試行可能な一般メッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Something went wrong. Please try again.",
		Category: "system",
		Action:   "Wait a moment and retry.",
	}
}
