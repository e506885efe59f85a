package controller

import (
	"errors"

	"workspace-context-be/internal/dto"
	"workspace-context-be/internal/pkg/serverutils"
	"workspace-context-be/internal/service"
	"workspace-context-be/pkg/conversation"
	"workspace-context-be/pkg/selection"

	"github.com/gofiber/fiber/v2"
)

type IWorkspaceController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetSelection(ctx *fiber.Ctx) error
	SelectNode(ctx *fiber.Ctx) error
	ToggleRow(ctx *fiber.Ctx) error
	ClearSelections(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
}

type workspaceController struct {
	service service.IWorkspaceService
	guard   fiber.Handler
}

func NewWorkspaceController(service service.IWorkspaceService, guard fiber.Handler) IWorkspaceController {
	return &workspaceController{service: service, guard: guard}
}

func (c *workspaceController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)

	h := r.Group("/workspaces")
	if c.guard != nil {
		h.Use(c.guard)
	}
	h.Post("", c.Create)
	h.Delete(":id", c.Delete)
	h.Get(":id/selection", c.GetSelection)
	h.Put(":id/selection/node", c.SelectNode)
	h.Post(":id/selection/rows/toggle", c.ToggleRow)
	h.Delete(":id/selection", c.ClearSelections)
	h.Get(":id/chat", c.GetChatHistory)
	h.Post(":id/chat", c.SendChat)
}

func (c *workspaceController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:     "ok",
		Mode:       c.service.Mode(),
		Workspaces: c.service.Count(),
	})
}

func (c *workspaceController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.CreateWorkspace(ctx.UserContext())
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create workspace", res))
}

func (c *workspaceController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteWorkspace(ctx.UserContext(), ctx.Params("id")); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete workspace", nil))
}

func (c *workspaceController) GetSelection(ctx *fiber.Ctx) error {
	res, err := c.service.GetSelection(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get selection", res))
}

func (c *workspaceController) SelectNode(ctx *fiber.Ctx) error {
	var req dto.SelectNodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.service.SelectNode(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select node", res))
}

func (c *workspaceController) ToggleRow(ctx *fiber.Ctx) error {
	var req dto.ToggleRowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.service.ToggleRow(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success toggle row", res))
}

func (c *workspaceController) ClearSelections(ctx *fiber.Ctx) error {
	res, err := c.service.ClearSelections(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear selections", res))
}

func (c *workspaceController) GetChatHistory(ctx *fiber.Ctx) error {
	res, err := c.service.GetChatHistory(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *workspaceController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.service.SendChat(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		// the completion failed but the error turn was recorded
		if res != nil {
			return ctx.Status(fiber.StatusBadGateway).JSON(
				serverutils.ErrorResponseWithData(fiber.StatusBadGateway, res.Reply.Content, res),
			)
		}
		return c.fail(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *workspaceController) fail(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrWorkspaceNotFound), errors.Is(err, conversation.ErrClosed):
		code = fiber.StatusNotFound
	case errors.Is(err, selection.ErrMissingID), errors.Is(err, conversation.ErrEmptyQuestion):
		code = fiber.StatusBadRequest
	case errors.Is(err, conversation.ErrSuperseded):
		code = fiber.StatusConflict
	}
	return ctx.Status(code).JSON(serverutils.ErrorResponse(code, err.Error()))
}
