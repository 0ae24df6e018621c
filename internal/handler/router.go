package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/selfcheck/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	Collector     middleware.StatusRecorder
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 評価
	CatalogService CatalogServiceInterface
	ScoringEngine  ScoringEngineInterface
	HistoryService HistoryServiceInterface

	// ユーザー管理
	UserService UserServiceInterface

	// 通知
	FlashService FlashService

	// Prometheusスクレイプ用ハンドラー（nil可）
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → （認証グループ）RequireAuth → RateLimit(General)
//
// 評価提出は提出専用レート制限を追加し、ユーザー管理はRequireAdminを追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.FlashService, deps.AuthConfig)
	assessmentHandler := NewAssessmentHandler(deps.CatalogService, deps.ScoringEngine, deps.HistoryService, deps.FlashService)
	userHandler := NewUserHandler(deps.UserService, deps.FlashService)
	messagesHandler := NewMessagesHandler(deps.FlashService)

	// --- 認証不要のルート ---

	r.Get("/health", healthCheck)
	r.Get("/messages", messagesHandler.Drain)
	r.Get("/logout", authHandler.Logout)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 登録・ログインは未認証のリクエストのみ受け付ける
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireGuest(deps.SessionFinder))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuth(deps.SessionFinder, deps.FlashService))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/assessment", func(r chi.Router) {
			r.Get("/", assessmentHandler.GetCatalog)

			// POST /assessment/submit - 提出専用レート制限を追加
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/submit", assessmentHandler.Submit)

			r.Get("/history", assessmentHandler.History)
			r.Get("/result/{id}", assessmentHandler.Result)
		})

		// --- 管理者のみのルート ---
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.NewRequireAdmin(deps.FlashService))

			r.Get("/", userHandler.List)
			r.Post("/create", userHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Post("/update", userHandler.Update)
				r.Post("/delete", userHandler.Delete)
				r.Post("/promote", userHandler.Promote)
			})
		})
	})

	return r
}

// healthCheck は死活監視用のエンドポイント。
// GET /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
