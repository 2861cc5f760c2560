package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/DevADOBAN/Taskhub/api"
	requestEventName   = "http.request.metrics"
	requestEventDomain = "taskhub.api"
	metricsKey         = "taskhub.metrics"
)

type requestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	start         time.Time
	method        string
	route         string
	userID        int64
	tasksReturned int
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)
	return &requestMetrics{
		logger:        logger,
		span:          span,
		start:         time.Now(),
		method:        method,
		route:         route,
		tasksReturned: -1,
	}, spanCtx
}

func (m *requestMetrics) SetUserID(id int64) {
	m.userID = id
}

func (m *requestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the request span and writes one structured observability event.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severityText, severityNumber := severityForStatus(status, err)

	attrs := map[string]any{
		"http.route":        m.route,
		"http.method":       m.method,
		"http.status_code":  status,
		"taskhub.total_ms":  durationToMillis(time.Since(m.start)),
	}
	spanAttrs := []attribute.KeyValue{
		attribute.Int("http.status_code", status),
		attribute.Float64("taskhub.total_ms", attrs["taskhub.total_ms"].(float64)),
	}
	if m.userID > 0 {
		attrs["taskhub.user_id"] = m.userID
		spanAttrs = append(spanAttrs, attribute.Int64("taskhub.user_id", m.userID))
	}
	if m.tasksReturned >= 0 {
		attrs["taskhub.tasks_returned"] = m.tasksReturned
		spanAttrs = append(spanAttrs, attribute.Int("taskhub.tasks_returned", m.tasksReturned))
	}
	if m.errorStage != "" {
		attrs["taskhub.error_stage"] = m.errorStage
		spanAttrs = append(spanAttrs, attribute.String("taskhub.error_stage", m.errorStage))
	}
	if err != nil {
		attrs["error.message"] = err.Error()
		spanAttrs = append(spanAttrs, attribute.String("error.message", err.Error()))
	}

	m.span.SetAttributes(spanAttrs...)
	m.span.AddEvent("observability.event", trace.WithAttributes(append(spanAttrs,
		attribute.String("event.name", requestEventName),
		attribute.String("event.domain", requestEventDomain),
		attribute.String("severity_text", severityText),
	)...))
	if severityNumber >= 17 {
		desc := http.StatusText(status)
		if err != nil {
			desc = err.Error()
		}
		m.span.SetStatus(codes.Error, desc)
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrs,
	}
	if sc := m.span.SpanContext(); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error("observability.event")
	case "WARN":
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

// severityForStatus follows the OpenTelemetry log severity numbers.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	case status == 0 && err != nil:
		return "ERROR", 17
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// RequestMetrics wraps each request in a span and logs its outcome.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			m, ctx := newRequestMetrics(req.Context(), logger, req.Method, c.Path())
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsKey, m)

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = statusFor(err)
			}
			if id, ok := c.Get(userIDKey).(int64); ok {
				m.SetUserID(id)
			}
			m.Log(status, err)
			return err
		}
	}
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

// stage records where a request failed, when metrics are attached.
func stage(c echo.Context, name string) {
	if m := metricsFrom(c); m != nil {
		m.SetErrorStage(name)
	}
}
