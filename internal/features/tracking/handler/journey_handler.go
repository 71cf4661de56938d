package handler

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fieldtrack/internal/core/cache"
	"fieldtrack/internal/core/geo"
	"fieldtrack/internal/core/logger"
	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
)

// JourneyHandler serves the read side: day summaries and last-known
// locations. Responses are cached briefly; readers are eventually consistent
// with the flush cadence anyway, so a short TTL costs nothing.
type JourneyHandler struct {
	store ports.JourneyStore
	cache cache.Cache
	ttl   time.Duration
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(store ports.JourneyStore, c cache.Cache, ttl time.Duration) *JourneyHandler {
	return &JourneyHandler{
		store: store,
		cache: c,
		ttl:   ttl,
	}
}

// journeyResponse is a journey plus display-friendly figures.
type journeyResponse struct {
	domain.Journey
	TotalDistanceText string `json:"total_distance_text"`
	SampleCount       int    `json:"sample_count"`
}

// GetJourney returns one actor's journey for a calendar date.
// GET /journeys/:actorID/:date
func (h *JourneyHandler) GetJourney(c *fiber.Ctx) error {
	actorID := c.Params("actorID")
	date := c.Params("date")

	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "date must be formatted YYYY-MM-DD",
			RayID:   rayID(c),
		})
	}

	cacheKey := "journey_read:" + actorID + ":" + date
	if cached, err := h.cache.Get(c.Context(), cacheKey); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	journey, err := h.store.ReadJourney(c.Context(), actorID, date)
	if err != nil {
		if errors.Is(err, ports.ErrJourneyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "journey not found",
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	resp := journeyResponse{
		Journey:           *journey,
		TotalDistanceText: geo.FormatDistance(journey.TotalDistanceMeters),
		SampleCount:       len(journey.Samples),
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := h.cache.Set(c.Context(), cacheKey, data, h.ttl); err != nil {
			logger.Get().Debug("journey read cache set failed", zap.Error(err))
		}
	}

	return c.JSON(resp)
}

// LatestLocation returns the actor's most recent persisted sample, the
// admin map's last-known-location query.
// GET /journeys/:actorID/latest-location
func (h *JourneyHandler) LatestLocation(c *fiber.Ctx) error {
	actorID := c.Params("actorID")

	sample, err := h.store.LatestSample(c.Context(), actorID)
	if err != nil {
		if errors.Is(err, ports.ErrNoSamples) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "no locations recorded for actor",
				RayID:   rayID(c),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.JSON(sample)
}
