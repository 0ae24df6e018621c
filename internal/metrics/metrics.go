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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin()
	RecordLoginFailure()
	RecordSubmission()
	RecordSubmissionFailure()
	RecordHTTPStatus(statusCode int)
	RecordSubmitLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins        prometheus.Counter
	loginFails    prometheus.Counter
	submissions   prometheus.Counter
	submitFails   prometheus.Counter
	httpStatus    *prometheus.CounterVec
	submitLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcheck_logins_total",
			Help: "ログイン成功の合計数",
		}),
		loginFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcheck_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcheck_submissions_total",
			Help: "評価提出成功の合計数",
		}),
		submitFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfcheck_submission_fail_total",
			Help: "評価提出失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "selfcheck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "selfcheck_submit_latency_seconds",
			Help:    "評価提出処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.loginFails,
		c.submissions,
		c.submitFails,
		c.httpStatus,
		c.submitLatency,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFails.Inc()
}

// RecordSubmission は評価提出成功を記録する。
func (c *Collector) RecordSubmission() {
	c.submissions.Inc()
}

// RecordSubmissionFailure は評価提出失敗を記録する。
func (c *Collector) RecordSubmissionFailure() {
	c.submitFails.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSubmitLatency は評価提出処理のレイテンシを記録する。
func (c *Collector) RecordSubmitLatency(duration time.Duration) {
	c.submitLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
