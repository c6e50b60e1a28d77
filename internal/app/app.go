package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/lostfound/internal/auth"
	"github.com/hitoshi/lostfound/internal/comment"
	"github.com/hitoshi/lostfound/internal/config"
	"github.com/hitoshi/lostfound/internal/database"
	"github.com/hitoshi/lostfound/internal/event"
	"github.com/hitoshi/lostfound/internal/handler"
	"github.com/hitoshi/lostfound/internal/imagestore"
	"github.com/hitoshi/lostfound/internal/imagestore/local"
	"github.com/hitoshi/lostfound/internal/imagestore/s3"
	"github.com/hitoshi/lostfound/internal/item"
	"github.com/hitoshi/lostfound/internal/live"
	"github.com/hitoshi/lostfound/internal/logger"
	"github.com/hitoshi/lostfound/internal/metrics"
	"github.com/hitoshi/lostfound/internal/middleware"
	"github.com/hitoshi/lostfound/internal/repository"
	"github.com/hitoshi/lostfound/internal/security"
	"github.com/hitoshi/lostfound/internal/suggest"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	itemRepo := repository.NewPostgresItemRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. メトリクスとライブ接続ハブの初期化
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	hub := live.NewHub()
	metrics.RegisterLiveConnectionsGauge(reg, hub.Count)

	notifier := event.NewNotifier(hub, collector)

	// 4. 画像ストアの初期化
	images, err := newImageStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}
	images = imagestore.WithMetrics(images, cfg.ImageStoreBackend, collector)

	// 5. ドメインサービスの初期化
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenMaxAge)
	authService := auth.NewService(userRepo, tokens)

	sanitizer := security.NewContentSanitizer()
	itemService := item.NewService(
		itemRepo, userRepo, sanitizer, images, notifier,
		cfg.ImageUploadTimeout, collector,
	)
	commentService := comment.NewService(commentRepo, sanitizer, notifier, collector)

	suggester := suggest.NewSuggester(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if !suggester.Enabled() {
		slog.Info("suggestion service disabled (no API key configured)")
	}

	// 6. レートリミッターの初期化
	// configのRateLimitGeneral/RateLimitItemRegはreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.ItemRegRate = rate.Limit(float64(cfg.RateLimitItemReg) / 60.0)
	rateLimiterCfg.ItemRegBurst = cfg.RateLimitItemReg
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,

		AuthService:    authService,
		ItemService:    itemService,
		CommentService: commentService,
		SuggestService: suggester,

		Hub: hub,

		MaxUploadSize: cfg.MaxUploadSize,

		Gatherer: reg,
	}
	if cfg.ImageStoreBackend == "local" {
		deps.LocalImageDir = cfg.LocalImageDir
		deps.LocalImageBaseURL = cfg.LocalImageBaseURL
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("image_store", cfg.ImageStoreBackend),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// ライブ接続とレートリミッターの後片付け
	hub.CloseAll()
	rateLimiter.Stop()

	slog.Info("API server stopped gracefully")
	return nil
}

// newImageStore は設定に応じた画像ストアバックエンドを生成する。
func newImageStore(cfg *config.Config) (imagestore.ImageStore, error) {
	switch cfg.ImageStoreBackend {
	case "s3":
		return s3.NewS3ImageStore(context.Background(), s3.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return local.NewLocalImageStore(cfg.LocalImageDir, cfg.LocalImageBaseURL)
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
