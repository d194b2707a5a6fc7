package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/service"
)

const (
	gradingFeedSnapshot     = "grading.snapshot"
	gradingFeedWriteTimeout = 5 * time.Second
)

// GradingFeedHandler streams grading lifecycle events for one task over a websocket.
type GradingFeedHandler struct {
	tasks  service.TaskService
	events service.GradingEventBus
	logger zerolog.Logger
}

// NewGradingFeedHandler constructs the grading status feed handler.
func NewGradingFeedHandler(tasks service.TaskService, events service.GradingEventBus, logger zerolog.Logger) *GradingFeedHandler {
	return &GradingFeedHandler{
		tasks:  tasks,
		events: events,
		logger: logger.With().Str("component", "grading_feed_handler").Logger(),
	}
}

// Register binds the feed under the provided router group.
func (h *GradingFeedHandler) Register(router fiber.Router) {
	router.Use("/:taskId", h.authorize)
	router.Get("/:taskId", websocket.New(h.handleConnection))
}

// authorize runs before the upgrade so that outsiders get a regular HTTP error.
func (h *GradingFeedHandler) authorize(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.tasks.Get(requestContext(c), taskID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Locals("task_id", taskID)
	c.Locals("grading_status", task.Grading.Status)
	return c.Next()
}

func (h *GradingFeedHandler) handleConnection(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	taskID, _ := conn.Locals("task_id").(uint)
	status, _ := conn.Locals("grading_status").(string)
	logger := h.logger.With().Uint("task_id", taskID).Logger()

	events, cleanup := h.events.Subscribe(taskID)
	defer cleanup()

	snapshot := dto.GradingEventResponse{
		Type:       gradingFeedSnapshot,
		TaskID:     taskID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.write(conn, snapshot); err != nil {
		logger.Debug().Err(err).Msg("failed to send grading snapshot")
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("grading feed connected")
	defer logger.Info().Msg("grading feed disconnected")

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, event); err != nil {
				logger.Debug().Err(err).Msg("failed to push grading event")
				return
			}
		}
	}
}

func (h *GradingFeedHandler) write(conn *websocket.Conn, event dto.GradingEventResponse) error {
	if err := conn.SetWriteDeadline(time.Now().Add(gradingFeedWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
