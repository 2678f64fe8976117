package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/collab/pkg/httpcontext"
	synergyUC "github.com/fastygo/collab/usecase/synergy"
)

type SynergyHandler struct {
	baseHandler
	uc *synergyUC.UseCase
}

func NewSynergyHandler(uc *synergyUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SynergyHandler {
	return &SynergyHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Recompute synergy with another user
// @Tags synergy
// @Router /api/v1/synergy/{userId} [post]
func (h *SynergyHandler) Compute(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	score, err := h.uc.Compute(stdCtx, userID, pathParam(ctx, "userId"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, score)
}

// @Summary List synergy scores of the caller
// @Tags synergy
// @Router /api/v1/synergy [get]
func (h *SynergyHandler) Leaderboard(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	scores, err := h.uc.Leaderboard(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, scores)
}

// @Summary Recompute synergy with every collaborator
// @Tags synergy
// @Router /api/v1/synergy/refresh [post]
func (h *SynergyHandler) Refresh(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	scores, err := h.uc.RefreshForUser(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, scores)
}
