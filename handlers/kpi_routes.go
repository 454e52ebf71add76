// handlers/kpi_routes.go
package handlers

import (
	"strconv"

	"mission-kpi-system/models"
	"mission-kpi-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupKPIRoutes(app *fiber.App, engine *services.KPIEngineService, aggregator *services.AggregatorService) {
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"kpi_version": models.KPIVersion})
	})

	app.Post("/kpi", func(c *fiber.Ctx) error {
		var req struct {
			MissionID int32   `json:"mission_id"`
			PlayerID  int16   `json:"player_id"`
			Component string  `json:"component"`
			Delta     float64 `json:"delta"`
			Note      string  `json:"note"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		component, err := models.KPIComponentFromString(req.Component)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid KPI component",
				"cause": err.Error(),
			})
		}
		record, err := engine.RecordKPI(req.MissionID, req.PlayerID, component, req.Delta, req.Note)
		if err != nil {
			return errorResponse(c, "failed to record KPI", err)
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	})

	app.Get("/kpi/total", func(c *fiber.Ctx) error {
		missionID, playerID, err := parsePairQuery(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		total, err := aggregator.TotalForPlayer(missionID, playerID)
		if err != nil {
			return errorResponse(c, "failed to compute total", err)
		}
		return c.JSON(fiber.Map{
			"mission_id": missionID,
			"player_id":  playerID,
			"total":      total,
		})
	})

	app.Get("/kpi/by-component", func(c *fiber.Ctx) error {
		missionID, playerID, err := parsePairQuery(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		totals, err := aggregator.TotalsByComponent(missionID, playerID)
		if err != nil {
			return errorResponse(c, "failed to compute totals by component", err)
		}
		named := make(map[string]float64, len(totals))
		for component, total := range totals {
			named[component.String()] = total
		}
		return c.JSON(fiber.Map{
			"mission_id":   missionID,
			"player_id":    playerID,
			"by_component": named,
		})
	})

	app.Get("/kpi/leaderboard/:missionId", func(c *fiber.Ctx) error {
		raw, err := strconv.ParseInt(c.Params("missionId"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid mission id"})
		}
		rows, err := aggregator.Leaderboard(int32(raw))
		if err != nil {
			return errorResponse(c, "failed to build leaderboard", err)
		}
		return c.JSON(fiber.Map{
			"mission_id":  int32(raw),
			"leaderboard": rows,
		})
	})

	app.Get("/kpi/player/:playerId/overview", func(c *fiber.Ctx) error {
		raw, err := strconv.ParseInt(c.Params("playerId"), 10, 16)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid player id"})
		}
		overview, err := aggregator.PlayerOverview(int16(raw))
		if err != nil {
			return errorResponse(c, "failed to build player overview", err)
		}
		return c.JSON(overview)
	})
}

func parsePairQuery(c *fiber.Ctx) (int32, int16, error) {
	missionRaw, err := strconv.ParseInt(c.Query("mission_id"), 10, 32)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid mission_id")
	}
	playerRaw, err := strconv.ParseInt(c.Query("player_id"), 10, 16)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid player_id")
	}
	return int32(missionRaw), int16(playerRaw), nil
}
