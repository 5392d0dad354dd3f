package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/services"
)

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	clients, err := h.clientService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(clients)
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	client, err := h.clientService.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}
