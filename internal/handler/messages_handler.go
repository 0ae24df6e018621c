package handler

import (
	"net/http"

	"github.com/hitoshi/selfcheck/internal/model"
)

// MessagesHandler はワンショット通知のHTTPハンドラー。
type MessagesHandler struct {
	flashes FlashService
}

// NewMessagesHandler はMessagesHandlerを生成する。
func NewMessagesHandler(flashes FlashService) *MessagesHandler {
	return &MessagesHandler{flashes: flashes}
}

// messageResponse は通知1件のAPIレスポンス。
type messageResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Drain は溜まった通知を追加順で返し、同時に削除する。
// GET /messages
// 2回目の読み取りは空の一覧になる。
func (h *MessagesHandler) Drain(w http.ResponseWriter, r *http.Request) {
	messages, err := h.flashes.Drain(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, toMessageResponse(m))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": items,
	})
}

func toMessageResponse(m model.FlashMessage) messageResponse {
	return messageResponse{Kind: m.Kind, Message: m.Message}
}
