package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type journalService interface {
	ListEvents(ctx context.Context, caller string, filter models.EventFilter) ([]models.Event, error)
}

// EventHandler pages through the event journal.
type EventHandler struct {
	journal journalService
}

// NewEventHandler constructs the handler.
func NewEventHandler(journal journalService) *EventHandler {
	return &EventHandler{journal: journal}
}

// List godoc
// @Summary Journal tail
// @Description Authority only. Pass cursor.next as `after` to fetch the next page.
// @Tags Events
// @Produce json
// @Param after query int false "Return events with a greater sequence"
// @Param limit query int false "Page size, at most 1000" default(100)
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := parseEventFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.journal.ListEvents(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	cursor := &models.Cursor{After: filter.AfterSeq, Next: filter.AfterSeq, Limit: filter.Limit, Count: len(events)}
	if len(events) > 0 {
		cursor.Next = events[len(events)-1].Seq
	}
	response.JSON(c, http.StatusOK, events, cursor)
}

func parseEventFilter(c *gin.Context) (models.EventFilter, error) {
	var filter models.EventFilter
	if raw := c.Query("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "after must be a non-negative integer")
		}
		filter.AfterSeq = after
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
