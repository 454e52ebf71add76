// handlers/mission_routes.go
package handlers

import (
	"log"
	"strconv"

	"mission-kpi-system/middleware"
	"mission-kpi-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(app *fiber.App, registry *services.RegistryService) {
	// 🔓 Read routes — no user context, but still require Gateway auth
	app.Get("/missions", func(c *fiber.Ctx) error {
		missions, err := registry.ListMissions()
		if err != nil {
			return errorResponse(c, "failed to list missions", err)
		}
		return c.JSON(missions)
	})

	app.Get("/missions/:id", func(c *fiber.Ctx) error {
		id, err := parseMissionID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid mission id"})
		}
		mission, err := registry.GetMission(id)
		if err != nil {
			return errorResponse(c, "failed to get mission", err)
		}
		return c.JSON(mission)
	})

	app.Get("/players", func(c *fiber.Ctx) error {
		players, err := registry.ListPlayers()
		if err != nil {
			return errorResponse(c, "failed to list players", err)
		}
		return c.JSON(players)
	})

	// 🔐 Admin routes — require operator context from the Gateway. The
	// middleware is attached per route so routes registered later (KPI
	// ingestion and reads) do not inherit the check.
	adminCtx := middleware.UserContextMiddleware()

	app.Post("/missions", adminCtx, func(c *fiber.Ctx) error {
		var req services.CreateMissionInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		mission, err := registry.CreateMission(req)
		if err != nil {
			return errorResponse(c, "failed to create mission", err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	app.Post("/missions/:id/transition", adminCtx, func(c *fiber.Ctx) error {
		id, err := parseMissionID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid mission id"})
		}
		var req struct {
			State string `json:"state"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		mission, err := registry.TransitionMission(id, req.State)
		if err != nil {
			return errorResponse(c, "failed to transition mission", err)
		}
		log.Printf("🛰️ Mission %d → %s (by %v)", id, req.State, c.Locals("user_id"))
		return c.JSON(mission)
	})

	app.Post("/missions/:id/invalid", adminCtx, func(c *fiber.Ctx) error {
		id, err := parseMissionID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid mission id"})
		}
		var req struct {
			Invalid bool   `json:"invalid"`
			Reason  string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		mission, err := registry.SetMissionInvalid(id, req.Invalid, req.Reason)
		if err != nil {
			return errorResponse(c, "failed to update mission validity", err)
		}
		return c.JSON(mission)
	})

	app.Delete("/missions/:id", adminCtx, func(c *fiber.Ctx) error {
		id, err := parseMissionID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid mission id"})
		}
		if err := registry.DeleteMission(id); err != nil {
			return errorResponse(c, "failed to delete mission", err)
		}
		log.Printf("🗑️ Mission %d deleted (by %v)", id, c.Locals("user_id"))
		return c.JSON(fiber.Map{"message": "mission deleted", "mission_id": id})
	})

	app.Post("/players", adminCtx, func(c *fiber.Ctx) error {
		var req struct {
			ID int16 `json:"id"`
			services.RegisterPlayerInput
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		player, err := registry.RegisterPlayer(req.ID, req.RegisterPlayerInput)
		if err != nil {
			return errorResponse(c, "failed to register player", err)
		}
		return c.Status(fiber.StatusCreated).JSON(player)
	})
}

func parseMissionID(c *fiber.Ctx) (int32, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}
