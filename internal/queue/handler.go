package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Processor performs the work behind each task type.
type Processor interface {
	Recompute(ctx context.Context, userID string) error
	RefreshDisplay(ctx context.Context) error
}

// Handler routes asynq tasks to a Processor.
type Handler struct {
	processor   Processor
	taskTimeout time.Duration
	logger      *zap.Logger
}

// HandlerOption is a function that configures a Handler
type HandlerOption func(*Handler)

// WithTaskTimeout sets the timeout for task processing
func WithTaskTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.taskTimeout = timeout
	}
}

// WithLogger sets the logger used for task failures
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(processor Processor, opts ...HandlerOption) *Handler {
	h := &Handler{
		processor:   processor,
		taskTimeout: 30 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ProcessTask processes a task based on its type. Failures are logged and
// marked so asynq does not retry them.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, h.taskTimeout)
	defer cancel()

	var err error
	switch task.Type() {
	case TypeRecompute:
		err = h.processRecompute(ctx, task)
	case TypeDisplayRefresh:
		err = h.processor.RefreshDisplay(ctx)
	default:
		return fmt.Errorf("unknown task type: %s: %w", task.Type(), asynq.SkipRetry)
	}
	if err != nil {
		h.logger.Error("background task failed", zap.String("task", task.Type()), zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (h *Handler) processRecompute(ctx context.Context, task *asynq.Task) error {
	var payload RecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode recompute payload: %w", err)
	}
	if payload.UserID == "" {
		return fmt.Errorf("recompute payload has no user id")
	}
	return h.processor.Recompute(ctx, payload.UserID)
}

// Mux registers h for every task type.
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeRecompute, h)
	mux.Handle(TypeDisplayRefresh, h)
	return mux
}
