// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordItemCreated(itemType string)
	RecordCommentCreated()
	RecordEventBroadcast(event string)
	RecordImageUpload(backend string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	itemsCreated    *prometheus.CounterVec
	commentsCreated prometheus.Counter
	eventsBroadcast *prometheus.CounterVec
	imageUploads    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		itemsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_items_created_total",
			Help: "作成された届け出の種別ごとの合計数",
		}, []string{"type"}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_comments_created_total",
			Help: "作成されたコメントの合計数",
		}),
		eventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_events_broadcast_total",
			Help: "ライブ接続に配信されたイベントのイベント名ごとの合計数",
		}, []string{"event"}),
		imageUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_image_uploads_total",
			Help: "画像アップロードのバックエンドごとの合計数",
		}, []string{"backend"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lostfound_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.itemsCreated,
		c.commentsCreated,
		c.eventsBroadcast,
		c.imageUploads,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RegisterLiveConnectionsGauge は現在のライブ接続数を公開するゲージを登録する。
// countFnは呼び出し時点の接続数を返す。
func RegisterLiveConnectionsGauge(reg prometheus.Registerer, countFn func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lostfound_live_connections",
		Help: "現在のライブ接続数",
	}, func() float64 {
		return float64(countFn())
	}))
}

// RecordItemCreated は届け出の作成を記録する。
func (c *Collector) RecordItemCreated(itemType string) {
	c.itemsCreated.WithLabelValues(itemType).Inc()
}

// RecordCommentCreated はコメントの作成を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordEventBroadcast はイベント配信を記録する。
func (c *Collector) RecordEventBroadcast(event string) {
	c.eventsBroadcast.WithLabelValues(event).Inc()
}

// RecordImageUpload は画像アップロードを記録する。
func (c *Collector) RecordImageUpload(backend string) {
	c.imageUploads.WithLabelValues(backend).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
