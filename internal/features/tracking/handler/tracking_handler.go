package handler

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
	"fieldtrack/internal/features/tracking/service"
)

// TrackingHandler exposes the session lifecycle and the position ingest
// boundary over HTTP.
type TrackingHandler struct {
	manager *service.Manager
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(manager *service.Manager) *TrackingHandler {
	return &TrackingHandler{
		manager: manager,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// positionRequest is the device-reported fix payload.
type positionRequest struct {
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy"`
	CapturedAt   time.Time `json:"captured_at"`
	BatteryLevel float64   `json:"battery_level"`
	Event        string    `json:"event"`
}

// Start begins or resumes tracking for an actor.
// POST /tracking/:actorID/start
func (h *TrackingHandler) Start(c *fiber.Ctx) error {
	actorID := c.Params("actorID")
	if actorID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "actor id is required",
			RayID:   rayID(c),
		})
	}

	snap, err := h.manager.Start(c.Context(), actorID)
	if err != nil {
		if errors.Is(err, ports.ErrPermissionDenied) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Message: "location permission denied; enable location access in device settings",
				RayID:   rayID(c),
			})
		}
		if errors.Is(err, service.ErrSessionEnded) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Message: "session already ended",
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.JSON(snap)
}

// Pause suspends tracking, retaining the journey figures.
// POST /tracking/:actorID/pause
func (h *TrackingHandler) Pause(c *fiber.Ctx) error {
	snap, err := h.manager.Pause(c.Params("actorID"))
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "no active session",
				RayID:   rayID(c),
			})
		}
		if errors.Is(err, service.ErrNotTracking) || errors.Is(err, service.ErrSessionEnded) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Message: err.Error(),
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.JSON(snap)
}

// End closes the actor's day, flushing the final snapshot.
// POST /tracking/:actorID/end
func (h *TrackingHandler) End(c *fiber.Ctx) error {
	actorID := c.Params("actorID")

	if err := h.manager.End(c.Context(), actorID); err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "no active session",
				RayID:   rayID(c),
			})
		}
		// A failed final flush still ends the session; the journey document
		// holds everything flushed so far.
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Status returns the live session snapshot the UI polls.
// GET /tracking/:actorID/status
func (h *TrackingHandler) Status(c *fiber.Ctx) error {
	snap, err := h.manager.Snapshot(c.Params("actorID"))
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "no active session",
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.JSON(snap)
}

// SubmitPosition ingests one device-reported fix.
// POST /tracking/:actorID/positions
func (h *TrackingHandler) SubmitPosition(c *fiber.Ctx) error {
	actorID := c.Params("actorID")

	var req positionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "malformed position payload",
			RayID:   rayID(c),
		})
	}

	if msg, ok := validatePosition(req); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: msg,
			RayID:   rayID(c),
		})
	}

	kind := domain.EventDayTracking
	if req.Event != "" {
		kind = domain.EventKind(req.Event)
		if kind != domain.EventDayTracking && kind != domain.EventShopArrival {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Message: "unknown event kind",
				RayID:   rayID(c),
			})
		}
	}

	err := h.manager.Submit(actorID, domain.Reading{
		Position: domain.Position{
			Latitude:       req.Latitude,
			Longitude:      req.Longitude,
			AccuracyMeters: req.Accuracy,
			CapturedAt:     req.CapturedAt,
		},
		BatteryLevel: req.BatteryLevel,
		Kind:         kind,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "no active session",
				RayID:   rayID(c),
			})
		}
		if errors.Is(err, ports.ErrNotWatching) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Message: "session is not tracking",
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func validatePosition(req positionRequest) (string, bool) {
	if math.IsNaN(req.Latitude) || req.Latitude < -90 || req.Latitude > 90 {
		return "latitude out of range", false
	}
	if math.IsNaN(req.Longitude) || req.Longitude < -180 || req.Longitude > 180 {
		return "longitude out of range", false
	}
	if req.Accuracy < 0 || math.IsNaN(req.Accuracy) {
		return "accuracy must be non-negative", false
	}
	if req.CapturedAt.IsZero() {
		return "captured_at is required", false
	}
	return "", true
}
