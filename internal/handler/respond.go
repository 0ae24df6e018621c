// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/selfcheck/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Category string   `json:"category"`
	Action   string   `json:"action"`
	Messages []string `json:"messages,omitempty"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// タグ付きエラーはカテゴリに応じたステータスコードで返し、
// それ以外は詳細をログにのみ残して一般メッセージの500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, apiErrorResponse{
			Code:     model.ErrCodeValidationFailed,
			Message:  "Validation failed",
			Category: "validation",
			Action:   "Fix the highlighted fields and try again.",
			Messages: validationErr.Messages,
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はエラーカテゴリをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Category {
	case "validation":
		return http.StatusBadRequest
	case "conflict":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	case "auth":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// flashServiceError はサービス層のエラーを通知メッセージに変換して書き込む。
// フォーム提出系ハンドラーのリダイレクト前に使用する。
func flashServiceError(flashes FlashService, w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		flashes.AddAll(w, r, "error", validationErr.Messages)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		flashes.Add(w, r, "error", apiErr.Message)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	flashes.Add(w, r, "error", model.NewInternalError().Message)
}
