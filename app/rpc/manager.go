package rpc

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/xelnet/xeld/domain"
	"github.com/xelnet/xeld/infrastructure/metrics"
	"golang.org/x/time/rate"
)

const (
	requestsPerSecond = 20
	requestBurst      = 40
	shutdownTimeout   = 5 * time.Second
)

// Manager serves the node administration interface over HTTP
type Manager struct {
	domain    domain.Domain
	collector *metrics.Collector
	engine    *gin.Engine
	server    *http.Server
}

// NewManager creates a new admin Manager listening on listenAddr
func NewManager(listenAddr string, domain domain.Domain, collector *metrics.Collector) *Manager {
	gin.SetMode(gin.ReleaseMode)

	manager := &Manager{
		domain:    domain,
		collector: collector,
		engine:    gin.New(),
	}
	manager.engine.Use(recovery(), requestLogger(), rateLimit(rate.NewLimiter(requestsPerSecond, requestBurst)))
	manager.setupRoutes()

	manager.server = &http.Server{
		Addr:              listenAddr,
		Handler:           manager.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return manager
}

// Handler returns the HTTP handler of the admin interface
func (m *Manager) Handler() http.Handler {
	return m.engine
}

// Start binds the listen address and serves requests in the background
func (m *Manager) Start() error {
	listener, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", m.server.Addr)
	}
	log.Infof("Admin interface listening on %s", listener.Addr())

	spawn("rpc.Manager.Start", func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Admin interface stopped: %+v", err)
		}
	})
	return nil
}

// Stop gracefully shuts down the admin interface
func (m *Manager) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return m.server.Shutdown(ctx)
}
