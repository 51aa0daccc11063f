package handlers

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
)

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "status": "ok", "advisory": h.engine().AdvisoryEnabled()})
}

// HandleVersion prints the binary's build information.
func (h *Handler) HandleVersion(c *fiber.Ctx) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return c.Status(500).SendString("no build information available")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
	return c.SendString("<pre>\n" + info.String() + "</pre>\n")
}

// HandleDBPing checks the database connection.
func (h *Handler) HandleDBPing(c *fiber.Ctx) error {
	if err := h.Store.Ping(c.UserContext()); err != nil {
		return c.Status(500).SendString("Database ping failed: " + err.Error())
	}
	return c.SendString("Database ping successful!")
}
