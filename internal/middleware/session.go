// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/selfcheck/internal/model"
)

const sessionCookieName = "session_id"

const (
	loginPath = "/login"
	homePath  = "/"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// logUserIDKey はアクセスログ用のユーザーID受け渡しキー。
// ガードはハンドラ用に派生させたコンテキストへセッションを注入するため、
// 外側のロギングミドルウェアからは見えない。このキーで共有する受け口を
// 先に仕込んでおき、ガードが認証後に書き込む。
var logUserIDKey = contextKey("logUserID")

// withLogUserID はログ用ユーザーIDの受け口をコンテキストに用意する。
func withLogUserID(ctx context.Context) (context.Context, *int64) {
	userID := new(int64)
	return context.WithValue(ctx, logUserIDKey, userID), userID
}

// setLogUserID は認証済みユーザーIDをアクセスログの受け口へ書き込む。
// 受け口が無い場合は何もしない。
func setLogUserID(ctx context.Context, userID int64) {
	if p, ok := ctx.Value(logUserIDKey).(*int64); ok {
		*p = userID
	}
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// FlashAdder はガードが通知を書き込むためのインターフェース。
// flash.Serviceの部分集合として定義する。
type FlashAdder interface {
	Add(w http.ResponseWriter, r *http.Request, kind, message string)
}

// NewRequireAuth はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するガードミドルウェアを返す。
// 認証済みセッションをリクエストコンテキストに注入する。
// 未認証リクエストには通知を1件書き込み、ログインページへリダイレクトする。
func NewRequireAuth(finder SessionFinder, flashes FlashAdder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := currentSession(finder, r)
			if session == nil {
				if flashes != nil {
					flashes.Add(w, r, "error", "You must be logged in to access that page")
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			setLogUserID(r.Context(), session.UserID)

			ctx := ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireGuest は未認証リクエストのみ通過させるガードミドルウェアを返す。
// 認証済みセッションを持つリクエストはホームへリダイレクトする。
func NewRequireGuest(finder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if currentSession(finder, r) != nil {
				http.Redirect(w, r, homePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRequireAdmin はadmin roleのセッションのみ通過させるガードミドルウェアを返す。
// RequireAuthの後段に配置すること。role不足のリクエストには通知を書き込み、
// ホームへリダイレクトする。ガードで弾かれた操作は一切の変更を行わない。
func NewRequireAdmin(flashes FlashAdder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := SessionFromContext(r.Context())
			if err != nil || !session.Role.IsAdmin() {
				if flashes != nil {
					flashes.Add(w, r, "error", "Admin access required")
				}
				http.Redirect(w, r, homePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentSession はCookieのトークンから有効なセッションを引く。
// Cookie無し・期限切れ・検索エラーはすべてnil（未認証扱い）。
func currentSession(finder SessionFinder, r *http.Request) *model.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := finder.FindByID(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to find session",
			slog.String("error", err.Error()),
		)
		return nil
	}

	return session
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// RequireAuthを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (int64, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return session.UserID, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
