package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Taistois/mims/internal/adapters/realtime"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/pagination"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// NotificationHandler handles in-app notifications and the live event stream
type NotificationHandler struct {
	notificationService *services.NotificationService
	registry            realtime.Registry
	log                 *zap.Logger
}

// NewNotificationHandler creates a new notification handler. A nil registry
// disables the event stream.
func NewNotificationHandler(notificationService *services.NotificationService, registry realtime.Registry, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		registry:            registry,
		log:                 log.Named("http.notifications"),
	}
}

// Create sends a notification to a user (admin/staff)
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req services.CreateNotificationInput
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	n, err := h.notificationService.Create(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Created(c, "Notification sent successfully", n)
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	items, total, err := h.notificationService.ListMine(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Paginated(c, "Notifications retrieved successfully", items, pagination.GetMeta(params, total))
}

// UnreadCount handles counting the caller's unread notifications
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.notificationService.UnreadCount(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Unread count retrieved successfully", fiber.Map{"unread": count})
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	n, err := h.notificationService.MarkRead(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Notification marked as read", n)
}

// Delete handles deleting one of the caller's notifications
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.notificationService.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return response.Success(c, "Notification deleted successfully", nil)
}

// Stream holds an SSE connection open and forwards the caller's notifications
// as they are created. The connection is registered for its lifetime only.
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	if h.registry == nil {
		return response.ServiceUnavailable(c, "Live notifications are not available")
	}
	actor := actorFrom(c)
	if actor.Anonymous() {
		return response.Unauthorized(c, "Unauthorized")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set(fiber.HeaderTransferEncoding, "chunked")
	c.Set("X-Accel-Buffering", "no")

	client := h.registry.Register(actor.UserID)
	log := h.log.With(zap.String("client_id", client.ID), zap.Uint("user_id", actor.UserID))

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.registry.Unregister(client.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", client.ID)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeEvent(w, event); err != nil {
					log.Debug("stream closed", zap.Error(err))
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Debug("stream closed", zap.Error(err))
					return
				}
			}
		}
	})
	return nil
}

// writeEvent writes one SSE frame and flushes it
func writeEvent(w *bufio.Writer, event realtime.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
	return w.Flush()
}
