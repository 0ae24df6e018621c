package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// mockUserService は関数フィールドで挙動を差し替えられるモック。
type mockUserService struct {
	listFunc    func(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error)
	getFunc     func(ctx context.Context, id int64) (*model.User, error)
	createFunc  func(ctx context.Context, username, email, password string, role model.Role) (*model.User, error)
	updateFunc  func(ctx context.Context, id int64, username, email, password string, role model.Role) error
	deleteFunc  func(ctx context.Context, id int64) error
	promoteFunc func(ctx context.Context, id int64) error
}

func (m *mockUserService) List(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error) {
	return m.listFunc(ctx, q)
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return m.getFunc(ctx, id)
}

func (m *mockUserService) Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
	return m.createFunc(ctx, username, email, password, role)
}

func (m *mockUserService) Update(ctx context.Context, id int64, username, email, password string, role model.Role) error {
	return m.updateFunc(ctx, id, username, email, password, role)
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockUserService) Promote(ctx context.Context, id int64) error {
	return m.promoteFunc(ctx, id)
}

func userRouter(h *UserHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Post("/users/create", h.Create)
	r.Get("/users/{id}", h.Get)
	r.Post("/users/{id}/update", h.Update)
	r.Post("/users/{id}/delete", h.Delete)
	r.Post("/users/{id}/promote", h.Promote)
	return r
}

func TestUserList_ParsesQueryParams(t *testing.T) {
	var gotQuery repository.ListUsersQuery
	service := &mockUserService{
		listFunc: func(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error) {
			gotQuery = q
			return []*model.User{{ID: 1, Username: "alice", Role: model.RoleUser}}, 25, nil
		},
	}
	router := userRouter(NewUserHandler(service, &mockFlashService{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?q=ali&page=2&perPage=5&sort=username&order=desc", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	want := repository.ListUsersQuery{Search: "ali", Page: 2, PerPage: 5, Sort: "username", Order: "desc"}
	if gotQuery != want {
		t.Errorf("query = %+v, want %+v", gotQuery, want)
	}

	var body struct {
		Users   []userResponse `json:"users"`
		Total   int            `json:"total"`
		Page    int            `json:"page"`
		PerPage int            `json:"per_page"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Total != 25 || body.Page != 2 || body.PerPage != 5 {
		t.Errorf("pagination = total %d page %d perPage %d, want 25/2/5", body.Total, body.Page, body.PerPage)
	}
	if len(body.Users) != 1 || body.Users[0].Username != "alice" {
		t.Errorf("users = %+v, want [alice]", body.Users)
	}
}

func TestUserList_DefaultsOnInvalidParams(t *testing.T) {
	var gotQuery repository.ListUsersQuery
	service := &mockUserService{
		listFunc: func(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error) {
			gotQuery = q
			return nil, 0, nil
		},
	}
	router := userRouter(NewUserHandler(service, &mockFlashService{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?page=abc&perPage=0", nil))

	if gotQuery.Page != 1 || gotQuery.PerPage != 10 {
		t.Errorf("page = %d perPage = %d, want defaults 1/10", gotQuery.Page, gotQuery.PerPage)
	}
}

func TestUserGet_ReturnsUser(t *testing.T) {
	service := &mockUserService{
		getFunc: func(ctx context.Context, id int64) (*model.User, error) {
			if id != 5 {
				t.Errorf("id = %d, want 5", id)
			}
			return &model.User{ID: 5, Username: "bob", Email: "bob@example.com", Role: model.RoleAdmin}, nil
		},
	}
	router := userRouter(NewUserHandler(service, &mockFlashService{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body userResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != 5 || body.Username != "bob" || body.Role != model.RoleAdmin {
		t.Errorf("unexpected user: %+v", body)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	service := &mockUserService{
		getFunc: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	router := userRouter(NewUserHandler(service, &mockFlashService{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/99", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUserCreate_Success(t *testing.T) {
	var gotRole model.Role
	service := &mockUserService{
		createFunc: func(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
			gotRole = role
			return &model.User{ID: 5, Username: username, Role: role}, nil
		},
	}
	flashes := &mockFlashService{}
	router := userRouter(NewUserHandler(service, flashes))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/users/create", url.Values{
		"username": {"bob"},
		"email":    {"bob@example.com"},
		"password": {"secret123"},
		"role":     {"admin"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/users" {
		t.Errorf("Location = %q, want /users", loc)
	}
	if gotRole != model.RoleAdmin {
		t.Errorf("role = %q, want admin", gotRole)
	}
	if len(flashes.added) != 1 || flashes.added[0].Kind != "success" {
		t.Errorf("flashes = %v, want one success notification", flashes.added)
	}
}

func TestUserCreate_ValidationFailure(t *testing.T) {
	service := &mockUserService{
		createFunc: func(ctx context.Context, username, email, password string, role model.Role) (*model.User, error) {
			return nil, model.NewValidationError("Username must be at least 3 characters")
		},
	}
	flashes := &mockFlashService{}
	router := userRouter(NewUserHandler(service, flashes))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/users/create", url.Values{"username": {"ab"}}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if len(flashes.added) != 1 || flashes.added[0].Kind != "error" {
		t.Errorf("flashes = %v, want one error notification", flashes.added)
	}
}

func TestUserUpdate_Success(t *testing.T) {
	var gotID int64
	var gotPassword string
	service := &mockUserService{
		updateFunc: func(ctx context.Context, id int64, username, email, password string, role model.Role) error {
			gotID = id
			gotPassword = password
			return nil
		},
	}
	flashes := &mockFlashService{}
	router := userRouter(NewUserHandler(service, flashes))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/users/5/update", url.Values{
		"username": {"bob"},
		"email":    {"bob@example.com"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if gotID != 5 {
		t.Errorf("id = %d, want 5", gotID)
	}
	if gotPassword != "" {
		t.Errorf("password = %q, want empty (unchanged)", gotPassword)
	}
	if len(flashes.added) != 1 || flashes.added[0].Message != "User updated" {
		t.Errorf("flashes = %v, want [User updated]", flashes.added)
	}
}

func TestUserDelete_Success(t *testing.T) {
	var gotID int64
	service := &mockUserService{
		deleteFunc: func(ctx context.Context, id int64) error {
			gotID = id
			return nil
		},
	}
	flashes := &mockFlashService{}
	router := userRouter(NewUserHandler(service, flashes))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/users/5/delete", url.Values{}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if gotID != 5 {
		t.Errorf("id = %d, want 5", gotID)
	}
	if len(flashes.added) != 1 || flashes.added[0].Message != "User deleted" {
		t.Errorf("flashes = %v, want [User deleted]", flashes.added)
	}
}

func TestUserPromote_Success(t *testing.T) {
	var gotID int64
	service := &mockUserService{
		promoteFunc: func(ctx context.Context, id int64) error {
			gotID = id
			return nil
		},
	}
	flashes := &mockFlashService{}
	router := userRouter(NewUserHandler(service, flashes))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/users/5/promote", url.Values{}))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if gotID != 5 {
		t.Errorf("id = %d, want 5", gotID)
	}
	if len(flashes.added) != 1 || flashes.added[0].Message != "User promoted to admin" {
		t.Errorf("flashes = %v, want [User promoted to admin]", flashes.added)
	}
}

func TestMessagesDrain_ReturnsAndClears(t *testing.T) {
	flashes := &mockFlashService{
		added: []model.FlashMessage{
			{Kind: "success", Message: "Logged in successfully"},
			{Kind: "error", Message: "oops"},
		},
	}
	h := NewMessagesHandler(flashes)

	w := httptest.NewRecorder()
	h.Drain(w, httptest.NewRequest(http.MethodGet, "/messages", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Messages []messageResponse `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(body.Messages))
	}
	if body.Messages[0].Kind != "success" || body.Messages[1].Message != "oops" {
		t.Errorf("unexpected messages: %+v", body.Messages)
	}

	// 2回目は空配列
	w = httptest.NewRecorder()
	h.Drain(w, httptest.NewRequest(http.MethodGet, "/messages", nil))
	var second struct {
		Messages []messageResponse `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(second.Messages) != 0 {
		t.Errorf("second drain messages = %d, want 0", len(second.Messages))
	}
}
