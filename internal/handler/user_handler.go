package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context, q repository.ListUsersQuery) ([]*model.User, int, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, username, email, password string, role model.Role) (*model.User, error)
	Update(ctx context.Context, id int64, username, email, password string, role model.Role) error
	Delete(ctx context.Context, id int64) error
	Promote(ctx context.Context, id int64) error
}

// UserHandler は管理者向けユーザー管理のHTTPハンドラー。
// 全ルートがRequireAdminガードの内側にマウントされる。
type UserHandler struct {
	service UserServiceInterface
	flashes FlashService
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, flashes FlashService) *UserHandler {
	return &UserHandler{
		service: service,
		flashes: flashes,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// List はユーザー一覧を検索・ページング・ソート付きで返す。
// GET /users?q=&page=&perPage=&sort=&order=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := repository.ListUsersQuery{
		Search:  r.URL.Query().Get("q"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "perPage", 10),
		Sort:    r.URL.Query().Get("sort"),
		Order:   r.URL.Query().Get("order"),
	}

	users, total, err := h.service.List(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":    items,
		"total":    total,
		"page":     query.Page,
		"per_page": query.PerPage,
	})
}

// Get はユーザー1件を返す。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Create はユーザーを作成する。
// POST /users/create {username, email, password, role}
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashes.Add(w, r, "error", "Invalid form submission")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	_, err := h.service.Create(
		r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		model.Role(r.PostFormValue("role")),
	)
	if err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	h.flashes.Add(w, r, "success", "User created")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// Update はユーザー情報を更新する。passwordが空の場合は変更しない。
// POST /users/{id}/update {username, email, password, role}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := r.ParseForm(); err != nil {
		h.flashes.Add(w, r, "error", "Invalid form submission")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	err = h.service.Update(
		r.Context(),
		id,
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		model.Role(r.PostFormValue("role")),
	)
	if err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	h.flashes.Add(w, r, "success", "User updated")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// Delete はユーザーを削除する。
// POST /users/{id}/delete
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	h.flashes.Add(w, r, "success", "User deleted")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// Promote はユーザーを管理者に昇格させる。
// POST /users/{id}/promote
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if err := h.service.Promote(r.Context(), id); err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	h.flashes.Add(w, r, "success", "User promoted to admin")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// queryInt はクエリパラメータを整数として取り出す。不正な値は既定値になる。
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
