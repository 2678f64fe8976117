package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/collab/pkg/httpcontext"
	deadlineUC "github.com/fastygo/collab/usecase/deadline"
)

type DeadlineHandler struct {
	baseHandler
	uc  *deadlineUC.UseCase
	now func() time.Time
}

func NewDeadlineHandler(uc *deadlineUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DeadlineHandler {
	return &DeadlineHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		now:         time.Now,
	}
}

// @Summary Scan the caller's upcoming deadlines
// @Tags deadlines
// @Router /api/v1/deadlines/scan [post]
func (h *DeadlineHandler) Scan(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.ScanIfDue(stdCtx, userID, h.now())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	status := http.StatusOK
	if res.Throttled {
		status = http.StatusAccepted
	}
	h.respondSuccess(ctx, status, res)
}
