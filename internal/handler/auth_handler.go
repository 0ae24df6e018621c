package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/selfcheck/internal/model"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*model.Session, error)
	Login(ctx context.Context, login, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// FlashService はハンドラーが通知チャネルを操作するためのインターフェース。
type FlashService interface {
	Add(w http.ResponseWriter, r *http.Request, kind, message string)
	AddAll(w http.ResponseWriter, r *http.Request, kind string, messages []string)
	Drain(r *http.Request) ([]model.FlashMessage, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
// フォーム提出を受け、結果を通知メッセージとリダイレクトで返す。
type AuthHandler struct {
	service AuthServiceInterface
	flashes FlashService
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, flashes FlashService, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		flashes: flashes,
		config:  config,
	}
}

// Register は新規ユーザー登録を処理する。
// POST /register {username, email, password}
// 検証失敗・重複は通知を書き込み元のフォームへ戻す。成功時はセッションを
// 発行して評価ページへリダイレクトする。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashes.Add(w, r, "error", "Invalid form submission")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	session, err := h.service.Register(
		r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
	)
	if err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.flashes.Add(w, r, "success", "Registered successfully")
	http.Redirect(w, r, "/assessment", http.StatusSeeOther)
}

// Login はログインを処理する。
// POST /login {username, password}
// usernameフィールドにはemailも指定できる。失敗理由に関わらず
// 同一の"Invalid credentials"を通知する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashes.Add(w, r, "error", "Invalid form submission")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	session, err := h.service.Login(
		r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
	)
	if err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.flashes.Add(w, r, "success", "Logged in successfully")
	http.Redirect(w, r, "/assessment", http.StatusSeeOther)
}

// Logout はセッションを破棄する。
// GET /logout
// セッション削除に失敗してもCookieはクリアする。通知チャネルは
// セッションと独立したCookieのため、ログアウト後も通知は届く。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	h.clearSessionCookie(w)
	h.flashes.Add(w, r, "success", "You have been logged out")
	http.Redirect(w, r, "/", http.StatusFound)
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
