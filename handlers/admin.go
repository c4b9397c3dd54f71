package handlers

import (
	"net/http"
	"time"

	"shutterbook/services/booking"
	"shutterbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler manages studio block-outs.
type AdminHandler struct {
	Coordinator booking.BookingCoordinator
}

func NewAdminHandler(coordinator booking.BookingCoordinator) *AdminHandler {
	return &AdminHandler{Coordinator: coordinator}
}

type blockInput struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Reason string    `json:"reason"`
}

func (h *AdminHandler) CreateBlockHandler(c *gin.Context) {
	var in blockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "start and end are required RFC3339 times", err.Error())
		return
	}

	block, err := h.Coordinator.BlockTime(c.Request.Context(), in.Start, in.End, in.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	getLogger(c).Info("Calendar block created", zap.String("blockID", block.ID),
		zap.Time("start", block.Start), zap.Time("end", block.End))
	c.JSON(http.StatusCreated, block)
}

func (h *AdminHandler) RemoveBlockHandler(c *gin.Context) {
	if err := h.Coordinator.RemoveBlock(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
