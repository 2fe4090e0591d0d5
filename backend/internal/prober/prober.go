package prober

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/metrics"
	"github.com/souvik03-136/craftwatch/backend/internal/models"
	"github.com/souvik03-136/craftwatch/backend/internal/slp"
)

// Querier performs one status query. *slp.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, host string, port int) (slp.Response, error)
}

// QuerierFunc adapts a plain function to Querier.
type QuerierFunc func(ctx context.Context, host string, port int) (slp.Response, error)

// Query calls f.
func (f QuerierFunc) Query(ctx context.Context, host string, port int) (slp.Response, error) {
	return f(ctx, host, port)
}

// Prober probes one fixed target.
type Prober struct {
	host    string
	port    int
	target  string
	querier Querier

	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *zap.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithMetrics records every probe in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Prober) { p.metrics = c }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Prober) { p.tracer = t }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) { p.logger = l }
}

// New returns a Prober for host:port.
func New(host string, port int, q Querier, opts ...Option) *Prober {
	p := &Prober{
		host:    host,
		port:    port,
		target:  net.JoinHostPort(host, strconv.Itoa(port)),
		querier: q,
		tracer:  otel.Tracer("github.com/souvik03-136/craftwatch/backend/internal/prober"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Target reports the probed address as host:port.
func (p *Prober) Target() string {
	return p.target
}

// Probe queries the target once. Failures are folded into the offline
// branch of the returned status and never surface as errors.
func (p *Prober) Probe(ctx context.Context) models.ServerStatus {
	ctx, span := p.tracer.Start(ctx, "prober.Probe",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("server.address", p.host),
			attribute.Int("server.port", p.port),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := p.querier.Query(ctx, p.host, p.port)
	elapsed := time.Since(start)

	var status models.ServerStatus
	if err != nil {
		status = models.OfflineStatus(p.target, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, status.Error)
		p.logger.Warn("❌ server is offline or unreachable",
			zap.String("target", p.target),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		status = models.OnlineStatus(p.target, resp.Description.String(), resp.Players.Online, resp.Players.Max, resp.LatencyMs())
		span.SetAttributes(
			attribute.Int("minecraft.players.online", resp.Players.Online),
			attribute.Int("minecraft.players.max", resp.Players.Max),
			attribute.String("minecraft.version", resp.Version.Name),
		)
		p.logger.Debug("✅ server is online",
			zap.String("target", p.target),
			zap.Int("players_online", resp.Players.Online),
			zap.Int("players_max", resp.Players.Max),
			zap.Float64("latency_ms", resp.LatencyMs()),
		)
	}

	if p.metrics != nil {
		p.metrics.RecordProbe(status, elapsed)
	}
	return status
}
