package controller

import (
	"ai-airquality-be/internal/dto"
	"ai-airquality-be/internal/pkg/serverutils"
	"ai-airquality-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	AttachDocument(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/query", c.Query)
	h.Post("/session", c.CreateSession)
	h.Get("/session/:id/history", c.GetHistory)
	h.Post("/session/:id/document", c.AttachDocument)
	h.Delete("/session", c.DeleteSession)
	h.Get("/usage", c.GetUsage)
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.Orchestrate(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")
	maxMessages := ctx.QueryInt("limit", 0)

	res, err := c.service.GetHistory(ctx.Context(), sessionId, maxMessages)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) AttachDocument(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")

	var req dto.AttachDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.AttachDocument(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	var req dto.DeleteSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := validate.Struct(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.service.DeleteSession(ctx.Context(), req.SessionId); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *chatController) GetUsage(ctx *fiber.Ctx) error {
	res, err := c.service.GetUsage(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
