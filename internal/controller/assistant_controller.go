package controller

import (
	"doc-support-be/internal/dto"
	"doc-support-be/internal/pkg/serverutils"
	"doc-support-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	HandleTurn(ctx *fiber.Ctx) error
	ConfirmSubscription(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("turn", serverutils.JwtMiddleware, c.HandleTurn)

	// Reached from the emailed confirmation link, so no transport token.
	h.Get("subscription/:id/confirm", c.ConfirmSubscription)
}

func (c *assistantController) HandleTurn(ctx *fiber.Ctx) error {
	var req dto.TurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The transport token is authoritative for the user identity.
	if tokenUser, ok := ctx.Locals("user_id").(string); ok && tokenUser != "" {
		req.UserID = tokenUser
	}

	res, err := c.assistantService.HandleTurn(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success handle turn", res))
}

func (c *assistantController) ConfirmSubscription(ctx *fiber.Ctx) error {
	subscriptionID := ctx.Params("id")
	if subscriptionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing subscription id")
	}

	if err := c.assistantService.ConfirmSubscription(ctx.Context(), subscriptionID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Subscription confirmed. You can now ask Doc Support to send your email.", nil))
}
