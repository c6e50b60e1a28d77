package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/lostfound/internal/live"
	"github.com/hitoshi/lostfound/internal/metrics"
	"github.com/hitoshi/lostfound/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPMetricsRecorder

	// サービス
	AuthService    AuthServiceInterface
	ItemService    ItemServiceInterface
	CommentService CommentServiceInterface
	SuggestService SuggestServiceInterface

	// ライブ接続
	Hub *live.Hub

	// 画像アップロードの上限（バイト）
	MaxUploadSize int64

	// ローカル画像ストレージの公開設定。S3バックエンド使用時は空
	LocalImageDir     string
	LocalImageBaseURL string

	// メトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → [Auth → RateLimit(General)]
//
// 認証ルート（/api/auth/*）、公開閲覧ルート、/live、/metrics、/healthは
// 認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	itemHandler := NewItemHandler(deps.ItemService, deps.SuggestService, deps.MaxUploadSize)
	commentHandler := NewCommentHandler(deps.CommentService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheusメトリクス
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// ライブ接続（WebSocket）。接続自体は認証を要求しない
	if deps.Hub != nil {
		r.Get("/live", deps.Hub.ServeWS)
	}

	// ローカル画像ストレージの静的配信
	if deps.LocalImageDir != "" {
		fileServer := http.StripPrefix(deps.LocalImageBaseURL, http.FileServer(http.Dir(deps.LocalImageDir)))
		r.Get(deps.LocalImageBaseURL+"/*", fileServer.ServeHTTP)
	}

	// 認証
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// 公開閲覧ルート
	r.Get("/api/items/all", itemHandler.ListAll)
	r.Get("/api/items/{id}", itemHandler.Get)
	r.Get("/api/comments/item/{itemId}", commentHandler.ListByItem)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	// 公開閲覧ルートと同じプレフィックスを共有するため、サブルーターは使わず
	// パターンを直接登録する。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 届け出管理
		// POST /api/items - 届け出登録（登録専用レート制限を追加）
		r.With(deps.RateLimiter.ItemRegistrationMiddleware()).Post("/api/items", itemHandler.Create)
		r.Get("/api/items", itemHandler.ListMine)
		r.Post("/api/items/suggest", itemHandler.Suggest)
		r.Put("/api/items/{id}", itemHandler.Update)
		r.Delete("/api/items/{id}", itemHandler.Delete)
		r.Get("/api/items/contact/{id}", itemHandler.Contact)

		// コメント管理
		r.Post("/api/comments/item/{itemId}", commentHandler.Create)
		r.Delete("/api/comments/{id}", commentHandler.Delete)
	})

	return r
}
