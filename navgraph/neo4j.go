package navgraph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/config"
	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/internal/telemetry"
	"github.com/BaSui01/graphground/internal/tlsutil"
	"github.com/BaSui01/graphground/types"
)

// =============================================================================
// 🗄️ Neo4j Gateway
// =============================================================================

// Neo4jGateway 基于 neo4j-go-driver 的 Gateway 实现。
// 驱动本身是并发安全的，每次调用使用独立的只读 session。
type Neo4jGateway struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Option 配置 Neo4jGateway。
type Option func(*Neo4jGateway)

// WithLogger 设置日志。
func WithLogger(logger *zap.Logger) Option {
	return func(g *Neo4jGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器。
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Neo4jGateway) { g.metrics = c }
}

// verifiedTLS 报告 URI 是否要求校验证书的加密连接（neo4j+s / bolt+s）。
// +ssc 方案交给驱动自行处理。
func verifiedTLS(uri string) bool {
	scheme, _, ok := strings.Cut(uri, "://")
	return ok && strings.HasSuffix(scheme, "+s")
}

// NewNeo4jGateway 创建驱动并按配置校验连通性。
// 连通性校验失败返回 GRAPH_UNAVAILABLE。
func NewNeo4jGateway(ctx context.Context, cfg config.GraphConfig, opts ...Option) (*Neo4jGateway, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.ConnectionAcquisitionTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
			}
			if verifiedTLS(cfg.URI) {
				c.TlsConfig = tlsutil.DefaultTLSConfig()
			}
		},
	)
	if err != nil {
		return nil, types.NewUnsupportedConfigurationError("invalid graph uri %q", cfg.URI).WithCause(err)
	}

	g := newNeo4jGateway(driver, cfg.Database, opts...)

	if cfg.VerifyConnectivity {
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, unavailable("verify connectivity", err)
		}
	}

	g.logger.Info("graph gateway initialized",
		zap.String("uri", cfg.URI),
		zap.String("database", cfg.Database),
	)
	return g, nil
}

func newNeo4jGateway(driver neo4j.DriverWithContext, database string, opts ...Option) *Neo4jGateway {
	g := &Neo4jGateway{
		driver:   driver,
		database: database,
		logger:   zap.NewNop(),
		tracer:   telemetry.Tracer("navgraph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("component", "navgraph"))
	return g
}

// FindPage implements Gateway.
func (g *Neo4jGateway) FindPage(ctx context.Context, url string) (*PageNode, error) {
	rows, err := g.run(ctx, "find_page", QueryFindPage, map[string]any{ParamURL: url})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.NewNotFoundError("no page node for url %q", url)
	}
	return &PageNode{ID: String(rows[0]["id"]), URL: String(rows[0]["url"])}, nil
}

// FindPageNodeID implements Gateway.
func (g *Neo4jGateway) FindPageNodeID(ctx context.Context, url string) (string, error) {
	page, err := g.FindPage(ctx, url)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// RunPathQuery implements Gateway.
func (g *Neo4jGateway) RunPathQuery(ctx context.Context, query string, params map[string]any) ([]PathRecord, error) {
	rows, err := g.run(ctx, "path_query", query, params)
	if err != nil {
		return nil, err
	}

	records := make([]PathRecord, 0, len(rows))
	for i, row := range rows {
		rec, ok := DecodePathRecord(row)
		if !ok {
			g.logger.Warn("skipping row without decodable path", zap.Int("row", i))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// RunStatement implements Gateway.
func (g *Neo4jGateway) RunStatement(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	return g.run(ctx, "statement", statement, params)
}

// Close implements Gateway.
func (g *Neo4jGateway) Close(ctx context.Context) error {
	g.closeOnce.Do(func() {
		g.closed.Store(true)
		g.closeErr = g.driver.Close(ctx)
		g.logger.Info("graph gateway closed")
	})
	return g.closeErr
}

func (g *Neo4jGateway) run(ctx context.Context, op, query string, params map[string]any) (rows []map[string]any, err error) {
	if g.closed.Load() {
		return nil, types.NewGraphUnavailableError("graph gateway is closed", nil)
	}

	ctx, span := g.tracer.Start(ctx, "navgraph."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "neo4j")),
	)
	start := time.Now()
	defer func() {
		g.metrics.RecordGraphQuery(op, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("db.rows", len(rows)))
		}
		span.End()
	}()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		g.logger.Error("graph query failed", zap.String("op", op), zap.Error(err))
		return nil, unavailable(op, err)
	}
	for result.Next(ctx) {
		rows = append(rows, result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		g.logger.Error("graph result failed", zap.String("op", op), zap.Error(err))
		return nil, unavailable(op, err)
	}

	g.logger.Debug("graph query done",
		zap.String("op", op),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

func unavailable(op string, err error) *types.Error {
	return types.NewGraphUnavailableError(fmt.Sprintf("graph %s failed", op), err).
		WithRetryable(neo4j.IsConnectivityError(err))
}
