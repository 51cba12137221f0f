package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veereshswamy995/campus-events/internal/config"
	"github.com/veereshswamy995/campus-events/internal/domain/registration"
)

type CheckInProcessor interface {
	CheckIn(ctx context.Context, eventID int64, studentEmail string) (registration.Registration, error)
}

type CheckInHandler struct {
	repo CheckInProcessor
}

func NewCheckInHandler(repo CheckInProcessor) *CheckInHandler {
	return &CheckInHandler{repo: repo}
}

// CheckIn marks a registered student as present. The repo's conditional
// update only matches rows still in 'registered', so a second call for
// the same student finds nothing and comes back 404; the first
// check-in's timestamp is never overwritten.
func (h *CheckInHandler) CheckIn(ctx *gin.Context) {
	var req registration.CheckInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	reg, err := h.repo.CheckIn(cctx, req.EventID, req.StudentEmail)

	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			RespondNotFound(ctx, "Registration not found")
			return
		}

		RespondInternal(ctx, "Could not check in")
		return
	}

	ctx.JSON(http.StatusOK, reg)
}
