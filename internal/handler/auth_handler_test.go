package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/selfcheck/internal/model"
)

// mockAuthService は関数フィールドで挙動を差し替えられるモック。
type mockAuthService struct {
	registerFunc func(ctx context.Context, username, email, password string) (*model.Session, error)
	loginFunc    func(ctx context.Context, login, password string) (*model.Session, error)
	logoutFunc   func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*model.Session, error) {
	return m.registerFunc(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, login, password string) (*model.Session, error) {
	return m.loginFunc(ctx, login, password)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.logoutFunc(ctx, sessionID)
}

// mockFlashService は通知の書き込みを記録するモック。
type mockFlashService struct {
	added []model.FlashMessage
}

func (m *mockFlashService) Add(w http.ResponseWriter, r *http.Request, kind, message string) {
	m.added = append(m.added, model.FlashMessage{Kind: kind, Message: message})
}

func (m *mockFlashService) AddAll(w http.ResponseWriter, r *http.Request, kind string, messages []string) {
	for _, msg := range messages {
		m.Add(w, r, kind, msg)
	}
}

func (m *mockFlashService) Drain(r *http.Request) ([]model.FlashMessage, error) {
	msgs := m.added
	m.added = nil
	return msgs, nil
}

func formRequest(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func TestRegister_Success(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, username, email, password string) (*model.Session, error) {
			if username != "alice" || email != "alice@example.com" || password != "secret123" {
				t.Errorf("unexpected arguments: %q %q %q", username, email, password)
			}
			return &model.Session{ID: "new-session"}, nil
		},
	}
	flashes := &mockFlashService{}
	h := NewAuthHandler(service, flashes, AuthHandlerConfig{SessionMaxAge: 86400})

	w := httptest.NewRecorder()
	h.Register(w, formRequest("/register", url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"secret123"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/assessment" {
		t.Errorf("Location = %q, want /assessment", loc)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil {
		t.Fatal("session_id cookie should be set")
	}
	if cookie.Value != "new-session" {
		t.Errorf("cookie value = %q, want new-session", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("cookie MaxAge = %d, want 86400", cookie.MaxAge)
	}

	if len(flashes.added) != 1 || flashes.added[0].Kind != "success" {
		t.Errorf("flashes = %v, want one success notification", flashes.added)
	}
}

func TestRegister_ValidationFailure_FlashesAllMessages(t *testing.T) {
	service := &mockAuthService{
		registerFunc: func(ctx context.Context, username, email, password string) (*model.Session, error) {
			return nil, model.NewValidationError(
				"Username must be at least 3 characters",
				"Password must be at least 6 characters",
			)
		},
	}
	flashes := &mockFlashService{}
	h := NewAuthHandler(service, flashes, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	h.Register(w, formRequest("/register", url.Values{}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/register" {
		t.Errorf("Location = %q, want /register", loc)
	}
	if sessionCookieFrom(t, w) != nil {
		t.Error("no session cookie should be set on failure")
	}
	if len(flashes.added) != 2 {
		t.Fatalf("flashes = %d, want 2", len(flashes.added))
	}
	for _, f := range flashes.added {
		if f.Kind != "error" {
			t.Errorf("flash kind = %q, want error", f.Kind)
		}
	}
}

func TestLogin_Success(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, login, password string) (*model.Session, error) {
			return &model.Session{ID: "sess"}, nil
		},
	}
	flashes := &mockFlashService{}
	h := NewAuthHandler(service, flashes, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	h.Login(w, formRequest("/login", url.Values{
		"username": {"alice"},
		"password": {"secret123"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/assessment" {
		t.Errorf("Location = %q, want /assessment", loc)
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.Value != "sess" {
		t.Error("session cookie should carry the issued session id")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, login, password string) (*model.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	flashes := &mockFlashService{}
	h := NewAuthHandler(service, flashes, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	h.Login(w, formRequest("/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}))

	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if sessionCookieFrom(t, w) != nil {
		t.Error("no session cookie should be set on failure")
	}
	if len(flashes.added) != 1 || flashes.added[0].Kind != "error" {
		t.Errorf("flashes = %v, want one error notification", flashes.added)
	}
}

func TestLogout_ClearsCookieAndRedirectsHome(t *testing.T) {
	var loggedOut string
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	flashes := &mockFlashService{}
	h := NewAuthHandler(service, flashes, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "sess"})

	h.Logout(w, r)

	if loggedOut != "sess" {
		t.Errorf("logged out session = %q, want sess", loggedOut)
	}
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil {
		t.Fatal("clearing cookie should be set")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}

	// ログアウト後も通知は届く（通知チャネルはセッションと独立したCookie）
	if len(flashes.added) != 1 || flashes.added[0].Kind != "success" {
		t.Errorf("flashes = %v, want one success notification", flashes.added)
	}
}

func TestLogout_WithoutCookie(t *testing.T) {
	service := &mockAuthService{
		logoutFunc: func(ctx context.Context, sessionID string) error {
			t.Error("Logout should not be called without a cookie")
			return nil
		},
	}
	h := NewAuthHandler(service, &mockFlashService{}, AuthHandlerConfig{})

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
}
