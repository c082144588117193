package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/config"
	"github.com/aescanero/dago-node-template/internal/render"
)

// Worker consumes render requests from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   redis.Cmdable
	service       *render.Service
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient redis.Cmdable,
	service *render.Service,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		service:       service,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// ErrorStream returns the stream error events are published to
func (w *Worker) ErrorStream() string {
	return w.resultStream + ".errors"
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting template worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	// Start processing work
	go w.processWork()

	w.logger.Info("template worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker, waiting up to timeout for the in-flight request
func (w *Worker) Stop(timeout time.Duration) error {
	w.logger.Info("stopping template worker", zap.String("worker_id", w.id))

	w.cancel()

	select {
	case <-w.done:
	case <-time.After(timeout):
		return fmt.Errorf("worker %s did not stop within %s", w.id, timeout)
	}

	w.logger.Info("template worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads requests until the worker is stopped
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage renders one request message and publishes the outcome.
// The message is acknowledged whether or not rendering succeeded.
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render request",
		zap.String("message_id", messageID),
	)

	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(&render.Request{ID: messageID}, fmt.Errorf("%w: %v", render.ErrInvalidRequest, err))
		w.acknowledgeMessage(messageID)
		return
	}

	if request.ID == "" {
		request.ID = messageID
	}

	// a stop request lets the current render finish
	response, err := w.service.Render(context.WithoutCancel(w.ctx), request)
	if err != nil {
		w.logger.Error("failed to render request",
			zap.String("message_id", messageID),
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
		w.publishError(request, err)
	} else if err := w.publishResult(response); err != nil {
		w.logger.Error("failed to publish result",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}

	w.acknowledgeMessage(messageID)
}

// parseRenderRequest parses a render request from a Redis message
func parseRenderRequest(values map[string]interface{}) (*render.Request, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request render.Request
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render request: %w", err)
	}

	return &request, nil
}

// ResultEvent is published for each rendered request
type ResultEvent struct {
	*render.Response
	WorkerID  string    `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is published for each failed request
type ErrorEvent struct {
	RequestID  string    `json:"request_id"`
	TemplateID string    `json:"template_id,omitempty"`
	Kind       string    `json:"kind"`
	Error      string    `json:"error"`
	WorkerID   string    `json:"worker_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// publishResult publishes a rendered document to the result stream
func (w *Worker) publishResult(response *render.Response) error {
	event := ResultEvent{
		Response:  response,
		WorkerID:  w.id,
		Timestamp: time.Now().UTC(),
	}

	if err := w.publish(w.resultStream, event); err != nil {
		return err
	}

	w.logger.Info("published render result",
		zap.String("request_id", response.ID),
		zap.Int("length", len(response.Content)),
	)
	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *render.Request, err error) {
	event := ErrorEvent{
		RequestID:  request.ID,
		TemplateID: request.TemplateID,
		Kind:       render.ErrorKind(err),
		Error:      err.Error(),
		WorkerID:   w.id,
		Timestamp:  time.Now().UTC(),
	}

	if publishErr := w.publish(w.ErrorStream(), event); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// publish adds event to stream, retrying up to MaxRetries times
func (w *Worker) publish(stream string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	for attempt := 0; ; attempt++ {
		err = w.redisClient.XAdd(context.Background(), args).Err()
		if err == nil {
			return nil
		}
		if attempt >= w.config.MaxRetries {
			return fmt.Errorf("failed to publish to stream %s after %d attempts: %w", stream, attempt+1, err)
		}
		w.logger.Warn("retrying publish",
			zap.String("stream", stream),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(context.Background(), w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
