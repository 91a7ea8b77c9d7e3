package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coin-checkpoints/common"
	"coin-checkpoints/config"
	"coin-checkpoints/tracker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsProvider interface {
	Stats() tracker.Stats
}

type Server struct {
	router *gin.Engine
	srv    *http.Server

	stats          StatsProvider
	checkpointPath func() string

	logger *zap.SugaredLogger
}

func New(stats StatsProvider, checkpointPath func() string, cfg *config.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), cors.Default())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HttpPort),
		Handler: router,
	}

	s := &Server{
		router:         router,
		srv:            srv,
		stats:          stats,
		checkpointPath: checkpointPath,
		logger:         zap.S().Named("[api]"),
	}
	s.router.GET("/status", s.status)
	s.router.GET("/lastTrackedBlockNumber", s.lastTrackedBlockNumber)
	return s
}

func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Status server stopped: %v", err)
		}
	}()

	s.logger.Infof("Status server listening on [%s]", s.srv.Addr)
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Errorf("Status server shutdown: %v", err)
	}
}

func (s *Server) status(c *gin.Context) {
	stats := s.stats.Stats()

	lastBlockAge := ""
	if stats.LastBlockTime != 0 {
		lastBlockAge = common.FormatSince(time.Unix(stats.LastBlockTime, 0), time.Now())
	}

	c.JSON(http.StatusOK, gin.H{
		"tracker":         stats,
		"left_blocks":     stats.ChainHeight - min(stats.Height, stats.ChainHeight),
		"last_block_age":  lastBlockAge,
		"checkpoint_file": s.checkpointPath(),
	})
}

func (s *Server) lastTrackedBlockNumber(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"last_tracked_block_number": s.stats.Stats().Height,
	})
}
