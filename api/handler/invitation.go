package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/collab/api/transport"
	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/pkg/httpcontext"
	invitationUC "github.com/fastygo/collab/usecase/invitation"
)

type InvitationHandler struct {
	baseHandler
	uc *invitationUC.UseCase
}

func NewInvitationHandler(uc *invitationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Invite an email address to a project
// @Tags invitations
// @Router /api/v1/projects/{id}/invitations [post]
func (h *InvitationHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.InvitationCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Create(stdCtx, invitationUC.CreateInput{
		ProjectID: pathParam(ctx, "id"),
		Email:     req.Email,
		Role:      domain.MemberRole(req.Role),
		InviterID: userID,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, inv)
}

// @Summary List pending invitations of a project
// @Tags invitations
// @Router /api/v1/projects/{id}/invitations [get]
func (h *InvitationHandler) ListForProject(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, err := h.uc.ListPendingForProject(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nonNil(invitations))
}

// @Summary List pending invitations addressed to the caller
// @Tags invitations
// @Router /api/v1/invitations [get]
func (h *InvitationHandler) ListMine(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, err := h.uc.ListPendingForEmail(stdCtx, userEmail(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nonNil(invitations))
}

// @Summary Accept an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/accept [post]
func (h *InvitationHandler) Accept(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Accept(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, inv)
}

// @Summary Decline an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/decline [post]
func (h *InvitationHandler) Decline(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Decline(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, inv)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
