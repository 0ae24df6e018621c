package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/selfcheck/internal/middleware"
	"github.com/hitoshi/selfcheck/internal/model"
)

// CatalogServiceInterface は評価カタログの読み取りインターフェース。
type CatalogServiceInterface interface {
	Tree(ctx context.Context) ([]*model.CategoryTree, error)
}

// ScoringEngineInterface は回答提出の採点インターフェース。
type ScoringEngineInterface interface {
	Submit(ctx context.Context, userID int64, answers map[string]string) (int64, error)
}

// HistoryServiceInterface は評価履歴の集計インターフェース。
type HistoryServiceInterface interface {
	ListForUser(ctx context.Context, userID int64) ([]*model.AssessmentSummary, error)
	GetResult(ctx context.Context, userID, assessmentID int64) (*model.AssessmentResult, error)
}

// AssessmentHandler は自己評価のHTTPハンドラー。
type AssessmentHandler struct {
	catalog CatalogServiceInterface
	engine  ScoringEngineInterface
	history HistoryServiceInterface
	flashes FlashService
}

// NewAssessmentHandler はAssessmentHandlerを生成する。
func NewAssessmentHandler(
	catalog CatalogServiceInterface,
	engine ScoringEngineInterface,
	history HistoryServiceInterface,
	flashes FlashService,
) *AssessmentHandler {
	return &AssessmentHandler{
		catalog: catalog,
		engine:  engine,
		history: history,
		flashes: flashes,
	}
}

// criteriaResponse は評価基準のAPIレスポンス。
type criteriaResponse struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Explanation string  `json:"explanation"`
	Weight      float64 `json:"weight"`
}

// aspectResponse は評価観点のAPIレスポンス。
type aspectResponse struct {
	ID       int64              `json:"id"`
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Criteria []criteriaResponse `json:"criteria"`
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID      int64            `json:"id"`
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	Aspects []aspectResponse `json:"aspects"`
}

// assessmentSummaryResponse は評価履歴1件のAPIレスポンス。
type assessmentSummaryResponse struct {
	ID         int64        `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	TotalScore float64      `json:"total_score"`
	Percentage float64      `json:"percentage"`
	Rating     model.Rating `json:"rating"`
}

// answerDetailResponse は評価結果詳細の1行のAPIレスポンス。
type answerDetailResponse struct {
	AspectCode   string  `json:"aspect_code"`
	CriteriaCode string  `json:"criteria_code"`
	Description  string  `json:"description"`
	Explanation  string  `json:"explanation"`
	Weight       float64 `json:"weight"`
	Answer       bool    `json:"answer"`
	Score        float64 `json:"score"`
}

// assessmentResultResponse は評価結果詳細のAPIレスポンス。
type assessmentResultResponse struct {
	ID            int64                  `json:"id"`
	CreatedAt     time.Time              `json:"created_at"`
	Answers       []answerDetailResponse `json:"answers"`
	TotalScore    float64                `json:"total_score"`
	TotalPossible float64                `json:"total_possible"`
	Percentage    float64                `json:"percentage"`
	Rating        model.Rating           `json:"rating"`
}

// submitRequest は回答提出のJSONリクエストボディ。
type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

// GetCatalog は評価フォーム用のネストしたカタログを返す。
// GET /assessment
func (h *AssessmentHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalog.Tree(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	categories := make([]categoryResponse, 0, len(tree))
	for _, c := range tree {
		cat := categoryResponse{
			ID:      c.ID,
			Code:    c.Code,
			Name:    c.Name,
			Aspects: make([]aspectResponse, 0, len(c.Aspects)),
		}
		for _, a := range c.Aspects {
			asp := aspectResponse{
				ID:       a.ID,
				Code:     a.Code,
				Name:     a.Name,
				Criteria: make([]criteriaResponse, 0, len(a.Criteria)),
			}
			for _, cr := range a.Criteria {
				asp.Criteria = append(asp.Criteria, criteriaResponse{
					ID:          cr.ID,
					Code:        cr.Code,
					Description: cr.Description,
					Explanation: cr.Explanation,
					Weight:      cr.Weight,
				})
			}
			cat.Aspects = append(cat.Aspects, asp)
		}
		categories = append(categories, cat)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// Submit は回答提出を処理する。
// POST /assessment/submit
// フォーム（answers[id]=0|1）とJSON（{"answers": {...}}）の両方を受け付ける。
// 採点はすべて単一トランザクションで行われ、結果は通知とリダイレクトで返す。
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	answers, err := parseAnswers(r)
	if err != nil {
		h.flashes.Add(w, r, "error", "Invalid form submission")
		http.Redirect(w, r, "/assessment", http.StatusSeeOther)
		return
	}

	if _, err := h.engine.Submit(r.Context(), userID, answers); err != nil {
		flashServiceError(h.flashes, w, r, err)
		http.Redirect(w, r, "/assessment", http.StatusSeeOther)
		return
	}

	h.flashes.Add(w, r, "success", "Assessment saved")
	http.Redirect(w, r, "/assessment", http.StatusSeeOther)
}

// History は呼び出しユーザーの評価一覧を返す。
// GET /assessment/history
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	summaries, err := h.history.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]assessmentSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, assessmentSummaryResponse{
			ID:         s.ID,
			CreatedAt:  s.CreatedAt,
			TotalScore: s.TotalScore,
			Percentage: s.Percentage,
			Rating:     s.Rating,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

// Result は評価1件の詳細を返す。所有者以外には存在を明かさない。
// GET /assessment/result/{id}
func (h *AssessmentHandler) Result(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	assessmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewAssessmentNotFoundError())
		return
	}

	result, err := h.history.GetResult(r.Context(), userID, assessmentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	answers := make([]answerDetailResponse, 0, len(result.Answers))
	for _, a := range result.Answers {
		answers = append(answers, answerDetailResponse{
			AspectCode:   a.AspectCode,
			CriteriaCode: a.CriteriaCode,
			Description:  a.Description,
			Explanation:  a.Explanation,
			Weight:       a.Weight,
			Answer:       a.Answer,
			Score:        a.Score,
		})
	}

	writeJSON(w, http.StatusOK, assessmentResultResponse{
		ID:            result.Assessment.ID,
		CreatedAt:     result.Assessment.CreatedAt,
		Answers:       answers,
		TotalScore:    result.TotalScore,
		TotalPossible: result.TotalPossible,
		Percentage:    result.Percentage,
		Rating:        result.Rating,
	})
}

// parseAnswers はリクエストから回答マップを取り出す。
// JSONボディは {"answers": {criteriaId: "0"|"1"}}、フォームは
// answers[criteriaId]=0|1 形式のキーを解釈する。
func parseAnswers(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		if req.Answers == nil {
			return map[string]string{}, nil
		}
		return req.Answers, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	answers := make(map[string]string)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "answers[") || !strings.HasSuffix(key, "]") {
			continue
		}
		id := key[len("answers[") : len(key)-1]
		if len(values) > 0 {
			answers[id] = values[len(values)-1]
		}
	}
	return answers, nil
}
