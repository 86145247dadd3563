// Package server exposes a real-time kitchen over HTTP: gin routes for
// commands and snapshots, a websocket event feed and prometheus gauges.
//
// Every handler touches the kitchen through the sim.Loop, so requests and
// wall-clock timer firings never interleave.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// DefaultCommandTimeout bounds how long a request waits for the kitchen loop.
const DefaultCommandTimeout = 5 * time.Second

// Server handles kitchen requests.
type Server struct {
	router  *gin.Engine
	kitchen *sim.Kitchen
	loop    *sim.Loop
	hub     *Hub
	metrics *Metrics
	timeout time.Duration
}

// New wires a server to a kitchen and the loop that owns it. It subscribes
// the event feed and metrics to the kitchen, so call it before the loop runs.
func New(k *sim.Kitchen, loop *sim.Loop) *Server {
	s := &Server{
		router:  gin.New(),
		kitchen: k,
		loop:    loop,
		hub:     NewHub(),
		metrics: NewMetrics(),
		timeout: DefaultCommandTimeout,
	}
	k.Subscribe(s.hub)
	k.Subscribe(s.metrics)

	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine { return s.router }

// Hub returns the websocket event feed.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", s.handleMetrics)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/snapshot", s.handleSnapshot)
		v1.GET("/advisories", s.handleAdvisories)
		v1.GET("/events", s.hub.ServeWS)

		v1.POST("/orders", s.handlePlaceOrder)
		v1.POST("/cook", s.handleStartCooking)
		v1.POST("/cook/next", s.handleStartNextOrder)
		v1.DELETE("/batches/:id", s.handleVoidBatch)

		v1.GET("/staff/:worker/recommendation", s.handleRecommendation)
		v1.POST("/staff/:worker/instructions", s.handleAdvanceWorker)

		v1.POST("/customers/arrive", s.handleCustomerArrives)
		v1.POST("/customers/ticket", s.handlePurchaseTicket)
		v1.POST("/customers/finish", s.handleFinishEating)
		v1.POST("/customers/leave", s.handleCustomerLeaves)

		v1.PUT("/ticket-machine", s.handleTicketMachine)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("kitchen server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// exec runs fn on the kitchen loop and waits for it. The request context
// and the command timeout bound only the hand-off to the loop, so a timeout
// never reports failure for a command that was applied.
func (s *Server) exec(c *gin.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	return s.loop.Do(ctx, fn)
}

// respond writes result with status on success, or the mapped error.
func (s *Server) respond(c *gin.Context, status int, result any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	if result == nil {
		c.Status(status)
		return
	}
	c.JSON(status, result)
}

// command runs fn on the loop and responds with its outcome.
func (s *Server) command(c *gin.Context, status int, fn func() (any, error)) {
	var (
		result any
		cmdErr error
	)
	if err := s.exec(c, func() { result, cmdErr = fn() }); err != nil {
		writeError(c, err)
		return
	}
	s.respond(c, status, result, cmdErr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}
