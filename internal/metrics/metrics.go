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
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordOTPSent()
	RecordOTPVerification(success bool)
	RecordCollecte()
	RecordNotificationDispatched()
	RecordDispatchLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	otpSent          prometheus.Counter
	otpVerified      *prometheus.CounterVec
	collectes        prometheus.Counter
	notifDispatched  prometheus.Counter
	dispatchLatency  prometheus.Histogram
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		otpSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photizon_otp_sent_total",
			Help: "送信されたOTPの合計数",
		}),
		otpVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photizon_otp_verification_total",
			Help: "OTP検証の結果別合計数",
		}, []string{"result"}),
		collectes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photizon_collectes_recorded_total",
			Help: "記録された収集実績の合計数",
		}),
		notifDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "photizon_notifications_dispatched_total",
			Help: "配信されたWhatsApp通知の合計数",
		}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "photizon_dispatch_cycle_seconds",
			Help:    "通知配信サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photizon_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.otpSent,
		c.otpVerified,
		c.collectes,
		c.notifDispatched,
		c.dispatchLatency,
		c.httpStatus,
	)

	return c
}

// RecordOTPSent はOTP送信を記録する。
func (c *Collector) RecordOTPSent() {
	c.otpSent.Inc()
}

// RecordOTPVerification はOTP検証の結果を記録する。
func (c *Collector) RecordOTPVerification(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.otpVerified.WithLabelValues(result).Inc()
}

// RecordCollecte は収集実績の記録を記録する。
func (c *Collector) RecordCollecte() {
	c.collectes.Inc()
}

// RecordNotificationDispatched は通知配信を記録する。
func (c *Collector) RecordNotificationDispatched() {
	c.notifDispatched.Inc()
}

// RecordDispatchLatency は配信サイクルの所要時間を記録する。
func (c *Collector) RecordDispatchLatency(duration time.Duration) {
	c.dispatchLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Noop は何も記録しないコレクター。メトリクスが不要なテストで使用する。
type Noop struct{}

func (Noop) RecordOTPSent()                               {}
func (Noop) RecordOTPVerification(success bool)           {}
func (Noop) RecordCollecte()                              {}
func (Noop) RecordNotificationDispatched()                {}
func (Noop) RecordDispatchLatency(duration time.Duration) {}
func (Noop) RecordHTTPStatus(statusCode int)              {}

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
