// Package flash はリダイレクトをまたぐワンショット通知を提供する。
package flash

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

const (
	// cookieName は通知チャネルのトークンを保持するCookieの名前。
	// セッションCookieとは独立しているため、ログアウトでセッションが
	// 破棄された後も通知は次の1回の読み取りまで生き残る。
	cookieName = "flash_token"

	// KindSuccess は成功通知。
	KindSuccess = "success"
	// KindError はエラー通知。
	KindError = "error"
)

// Config は通知チャネルのCookie設定。
type Config struct {
	CookieSecure bool
	CookieDomain string
}

// Service はワンショット通知のサービス層。
// 書き込みは追記、読み取りはドレイン（取得と同時に削除）。
type Service struct {
	repo   repository.FlashRepository
	config Config
}

// NewService はServiceを生成する。
func NewService(repo repository.FlashRepository, config Config) *Service {
	return &Service{
		repo:   repo,
		config: config,
	}
}

// Add はリクエストの通知チャネルにメッセージを追加する。
// トークンCookieが未設定の場合は新しいトークンを発行してCookieを設定する。
// 通知の失敗はリクエスト本体の処理を止めるほどではないため、エラーは返さずログに残す。
func (s *Service) Add(w http.ResponseWriter, r *http.Request, kind, message string) {
	token := s.ensureToken(w, r)
	if err := s.repo.Append(r.Context(), token, kind, message); err != nil {
		slog.Error("failed to append flash message",
			slog.String("error", err.Error()),
			slog.String("kind", kind),
		)
	}
}

// AddAll は複数メッセージを順に追加する。
func (s *Service) AddAll(w http.ResponseWriter, r *http.Request, kind string, messages []string) {
	for _, m := range messages {
		s.Add(w, r, kind, m)
	}
}

// Drain はリクエストの通知チャネルから全メッセージを追加順で取り出す。
// 取り出したメッセージは削除され、2回目の読み取りでは空になる。
// トークンCookieが無い場合、またはUUIDとして解釈できない場合は空を返す。
func (s *Service) Drain(r *http.Request) ([]model.FlashMessage, error) {
	token := requestToken(r)
	if token == "" {
		return nil, nil
	}

	messages, err := s.repo.Drain(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("failed to drain flash messages: %w", err)
	}

	return messages, nil
}

// ensureToken はリクエストのトークンを返す。無ければ発行してCookieを設定する。
// 改ざんされたトークンは未設定扱いとなり、新しいトークンで置き換わる。
func (s *Service) ensureToken(w http.ResponseWriter, r *http.Request) string {
	if token := requestToken(r); token != "" {
		return token
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.config.CookieDomain,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 同一リクエスト内での後続のAdd呼び出しが同じトークンを拾えるようにする。
	r.AddCookie(&http.Cookie{Name: cookieName, Value: token})

	return token
}

// requestToken はリクエストから有効なトークンを探す。
// flashesテーブルのtoken列はUUID型のため、UUIDとして解釈できない値は
// クエリに乗せず無視する。
func requestToken(r *http.Request) string {
	for _, cookie := range r.Cookies() {
		if cookie.Name != cookieName || cookie.Value == "" {
			continue
		}
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	return ""
}
