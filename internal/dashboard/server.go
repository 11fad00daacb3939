package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"salesflow/config"
	"salesflow/internal/metrics"
	"salesflow/logger"
	"salesflow/models"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	monthLayout     = "2006-01"
)

// Server exposes the latest materialized tables together with recent logs
// and metrics as a read-only JSON API.
type Server struct {
	cfg           config.DashboardConfig
	log           *logger.Log
	metricStore   *metricStore
	logStore      *logStore
	runStore      *runStore
	metricHandler metrics.MetricHandlerID
	httpServer    *http.Server
}

// NewServer constructs a dashboard server when the dashboard feature is enabled.
// When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, log *logger.Log) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	if cfg.LogHistory <= 0 {
		cfg.LogHistory = 200
	}

	if cfg.MetricsHistory <= 0 {
		cfg.MetricsHistory = 200
	}

	metricStore := newMetricStore(cfg.MetricsHistory)
	handlerID := metrics.RegisterMetricHandler(metricStore.handle)

	logStore := newLogStore(cfg.LogHistory)
	log.AddHook(logStore)

	return &Server{
		cfg:           cfg,
		log:           log,
		metricStore:   metricStore,
		logStore:      logStore,
		runStore:      newRunStore(),
		metricHandler: handlerID,
	}, nil
}

// PublishRun replaces the tables served by the API with those of a finished run.
func (s *Server) PublishRun(summary RunSummary, tables []*models.Table) {
	if s == nil {
		return
	}
	s.runStore.publish(summary, tables)
}

// Run starts the dashboard HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.WithComponent("dashboard").WithFields(logger.Fields{"address": s.cfg.Address}).Info("dashboard API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	if s.logStore != nil {
		s.logStore.close()
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/runs/latest", func(c *gin.Context) {
		summary, ok := s.runStore.latest()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	router.GET("/api/tables/:name", s.handleTable)

	router.GET("/api/metrics", func(c *gin.Context) {
		metricsSnapshot := s.metricStore.snapshot()
		payload := make([]gin.H, 0, len(metricsSnapshot))
		for _, m := range metricsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": m.Timestamp.Format(time.RFC3339Nano),
				"component": m.Component,
				"name":      m.Name,
				"value":     m.Value,
				"type":      m.Type,
				"fields":    m.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"metrics": payload})
	})

	router.GET("/api/logs", func(c *gin.Context) {
		level := logrus.TraceLevel
		if raw := c.Query("level"); raw != "" {
			parsed, err := logrus.ParseLevel(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			level = parsed
		}
		c.JSON(http.StatusOK, gin.H{"logs": s.logStore.snapshot(level)})
	})

	return router, nil
}

// handleTable serves one page of a materialized table of the latest run,
// optionally filtered by customer state and order month.
func (s *Server) handleTable(c *gin.Context) {
	name := c.Param("name")
	table, ok := s.runStore.table(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table " + name})
		return
	}

	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	filters, err := tableFilters(table, c.Query("state"), c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := make([]models.Row, 0, limit)
	matched := 0
	for _, row := range table.Rows {
		if !filters.match(row.Values()) {
			continue
		}
		if matched >= offset && len(rows) < limit {
			rows = append(rows, row)
		}
		matched++
	}

	c.JSON(http.StatusOK, gin.H{
		"table":   table.Name,
		"columns": table.ColumnNames(),
		"total":   matched,
		"offset":  offset,
		"limit":   limit,
		"rows":    rows,
	})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

type rowFilter struct {
	stateIdx int
	state    string
	monthIdx int
	month    string
}

func tableFilters(t *models.Table, state, month string) (rowFilter, error) {
	f := rowFilter{stateIdx: -1, monthIdx: -1}
	if state != "" {
		f.stateIdx = columnIndex(t, "customer_state")
		if f.stateIdx < 0 {
			return f, errors.New("table " + t.Name + " has no customer_state column")
		}
		f.state = strings.ToUpper(strings.TrimSpace(state))
	}
	if month != "" {
		if _, err := time.Parse(monthLayout, month); err != nil {
			return f, errors.New("month must be YYYY-MM")
		}
		f.monthIdx = columnIndex(t, "order_month")
		if f.monthIdx < 0 {
			return f, errors.New("table " + t.Name + " has no order_month column")
		}
		f.month = month
	}
	return f, nil
}

func columnIndex(t *models.Table, name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (f rowFilter) match(values []any) bool {
	if f.stateIdx >= 0 {
		if s, _ := values[f.stateIdx].(string); s != f.state {
			return false
		}
	}
	if f.monthIdx >= 0 {
		m, ok := values[f.monthIdx].(time.Time)
		if !ok || m.Format(monthLayout) != f.month {
			return false
		}
	}
	return true
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
