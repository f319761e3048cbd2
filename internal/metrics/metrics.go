// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証・HTTP・プロジェクト操作・セッション掃除の各コンポーネントから利用する。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	projectMutation *prometheus.CounterVec
	sessionsPurged  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amisag_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPレスポンス数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "amisag_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amisag_auth_failures_total",
			Help: "理由別の認証失敗数",
		}, []string{"reason"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amisag_session_cache_hits_total",
			Help: "セッションキャッシュのヒット数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amisag_session_cache_misses_total",
			Help: "セッションキャッシュのミス数",
		}),
		projectMutation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amisag_project_mutations_total",
			Help: "操作種別ごとのプロジェクト変更数",
		}, []string{"op"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amisag_sessions_purged_total",
			Help: "掃除ワーカーが削除した期限切れセッション数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authFailures,
		c.cacheHits,
		c.cacheMisses,
		c.projectMutation,
		c.sessionsPurged,
	)

	return c
}

// RecordHTTPRequest はHTTPレスポンスを記録する。
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, status).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗を理由別に記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordSessionCacheHit はセッションキャッシュのヒットを記録する。
func (c *Collector) RecordSessionCacheHit() {
	c.cacheHits.Inc()
}

// RecordSessionCacheMiss はセッションキャッシュのミスを記録する。
func (c *Collector) RecordSessionCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordProjectMutation はプロジェクトの作成・更新・削除を記録する。
func (c *Collector) RecordProjectMutation(op string) {
	c.projectMutation.WithLabelValues(op).Inc()
}

// RecordSessionsPurged は削除したセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
