package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	svc     *app.ReadingService
	spreads ports.SpreadRegistry
}

func NewHandler(svc *app.ReadingService, spreads ports.SpreadRegistry) *Handler {
	return &Handler{svc: svc, spreads: spreads}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/v1/spreads", h.ListSpreads)
	e.POST("/v1/readings", h.CreateReading)
	e.POST("/v1/readings/follow-up", h.FollowUp)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) ListSpreads(c echo.Context) error {
	defs, err := h.spreads.All()
	if err != nil {
		return mapError(c, err)
	}
	out := make([]SpreadResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, toSpreadResponse(def))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateReading(c echo.Context) error {
	start := time.Now()

	var req ReadingRequest
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if req.Spread == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "spread is required"})
	}
	if len(req.Cards) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cards are required"})
	}
	if len(req.Question) > 500 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question must be at most 500 characters"})
	}

	requestID, _ := c.Get(contextKeyRequestID).(string)

	fin, err := h.svc.Read(c.Request().Context(), requestID, req.toApp())
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, toReadingResponse(fin, requestID, time.Since(start).Milliseconds()))
}

func (h *Handler) FollowUp(c echo.Context) error {
	start := time.Now()

	var req FollowUpRequest
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if req.Narrative == "" || req.Question == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "narrative and question are required"})
	}
	if len(req.Question) > 500 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "question must be at most 500 characters"})
	}

	requestID, _ := c.Get(contextKeyRequestID).(string)

	in := app.FollowUpRequest{
		PriorNarrative: req.Narrative,
		Question:       req.Question,
	}
	if req.Personalization != nil {
		in.Personalization = req.Personalization.toDomain()
	}

	fin, err := h.svc.FollowUp(c.Request().Context(), requestID, in)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, toReadingResponse(fin, requestID, time.Since(start).Milliseconds()))
}

// decodeStrict rejects bodies with unknown fields or trailing content.
func decodeStrict(c echo.Context, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	if dec.More() {
		return errors.New("invalid request body: trailing content")
	}
	return nil
}

func mapError(c echo.Context, err error) error {
	requestID, _ := c.Get(contextKeyRequestID).(string)

	switch {
	case errors.Is(err, domain.ErrUnknownSpread), errors.Is(err, domain.ErrInvalidSpreadShape):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDeckNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrBackendUnavailable):
		slog.Error("all backends unavailable", "request_id", requestID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "generation backends unavailable"})
	case errors.Is(err, domain.ErrSafetyBudgetExceeded):
		slog.Error("prompt budget unsatisfiable", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
