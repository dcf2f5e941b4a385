package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server wraps asynq server functionality
type Server struct {
	server *asynq.Server
	mu     sync.Mutex
}

// NewServer creates an asynq server consuming queue with the given
// concurrency.
func NewServer(redisURL, queue string, concurrency int, logger *zap.Logger) (*Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if queue == "" {
		queue = DefaultQueue
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queue: 1},
		Logger:          logger.Sugar(),
		ShutdownTimeout: 10 * time.Second,
	})
	return &Server{server: srv}, nil
}

// Start begins processing tasks with h.
func (s *Server) Start(h *Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.server.Start(h.Mux()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks and stops the server.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server.Shutdown()
}
