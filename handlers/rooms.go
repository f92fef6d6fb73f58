package handlers

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/karthikraju391/go-nats-chat-coordinator/coordinator"
	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// RoomService is the part of the coordinator the HTTP surface needs.
type RoomService interface {
	ListRooms(ctx context.Context) ([]models.RoomSummary, error)
	CreateRoom(ctx context.Context, roomName, creatorID string) error
	DeleteRoom(ctx context.Context, roomName, requesterID string, isMaster bool) error
	Stats(ctx context.Context) (users, rooms int, err error)
}

// BrokerStatus reports whether the fan-out transport is usable.
type BrokerStatus interface {
	Connected() bool
}

type CreateRoomRequest struct {
	RoomName  string `json:"roomName"`
	CreatedBy string `json:"createdBy"`
}

type CreateRoomResponse struct {
	Success   bool   `json:"success"`
	RoomName  string `json:"roomName"`
	CreatedBy string `json:"createdBy"`
}

type DeleteRoomRequest struct {
	DeletedBy   string `json:"deletedBy"`
	IsMaster    bool   `json:"isMaster"`
	DisplayName string `json:"displayName"`
}

type DeleteRoomResponse struct {
	Success  bool   `json:"success"`
	RoomName string `json:"roomName"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	NatsConnected bool   `json:"natsConnected"`
	ActiveUsers   int    `json:"activeUsers"`
	Rooms         int    `json:"rooms"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type RoomHandler struct {
	rooms  RoomService
	broker BrokerStatus
}

func NewRoomHandler(rooms RoomService, broker BrokerStatus) *RoomHandler {
	return &RoomHandler{rooms: rooms, broker: broker}
}

// List handles GET /rooms.
func (h *RoomHandler) List(c *fiber.Ctx) error {
	rooms, err := h.rooms.ListRooms(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rooms)
}

// Create handles POST /rooms.
func (h *RoomHandler) Create(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "InvalidRequest",
			Message: "Invalid request body",
		})
	}

	if err := h.rooms.CreateRoom(c.UserContext(), req.RoomName, req.CreatedBy); err != nil {
		return writeError(c, err)
	}
	return c.JSON(CreateRoomResponse{Success: true, RoomName: req.RoomName, CreatedBy: req.CreatedBy})
}

// Delete handles DELETE /rooms/:roomName.
func (h *RoomHandler) Delete(c *fiber.Ctx) error {
	roomName, err := url.PathUnescape(c.Params("roomName"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "InvalidRequest",
			Message: "Invalid room name",
		})
	}

	var req DeleteRoomRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "InvalidRequest",
				Message: "Invalid request body",
			})
		}
	}

	if err := h.rooms.DeleteRoom(c.UserContext(), roomName, req.DeletedBy, req.IsMaster); err != nil {
		return writeError(c, err)
	}
	log.Info().Str("room", roomName).Str("deletedBy", req.DeletedBy).Str("displayName", req.DisplayName).Msg("room deleted over http")
	return c.JSON(DeleteRoomResponse{Success: true, RoomName: roomName})
}

// Health handles GET /health.
func (h *RoomHandler) Health(c *fiber.Ctx) error {
	users, rooms, err := h.rooms.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	resp := HealthResponse{Status: "ok", NatsConnected: h.broker.Connected(), ActiveUsers: users, Rooms: rooms}
	if !resp.NatsConnected {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func writeError(c *fiber.Ctx, err error) error {
	status, kind := fiber.StatusInternalServerError, "Internal"
	switch errors.Cause(err) {
	case coordinator.ErrAlreadyExists:
		status, kind = fiber.StatusBadRequest, "AlreadyExists"
	case coordinator.ErrInvalidRoomName:
		status, kind = fiber.StatusBadRequest, "InvalidRoomName"
	case coordinator.ErrNotFound:
		status, kind = fiber.StatusNotFound, "NotFound"
	case coordinator.ErrForbidden:
		status, kind = fiber.StatusForbidden, "Forbidden"
	case coordinator.ErrStopped, context.Canceled, context.DeadlineExceeded:
		status, kind = fiber.StatusServiceUnavailable, "Unavailable"
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(ErrorResponse{Error: kind, Message: err.Error()})
}
