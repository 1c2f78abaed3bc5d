package cron_feature

import (
	"context"
	"time"

	"go-itam/internal/common/errs"

	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{
		Service: service,
	}
}

// ListCronJobs godoc
func (c *CronController) ListCronJobs(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.ListJobs())
}

// ExecuteCronJob godoc
func (c *CronController) ExecuteCronJob(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	ctxt, cancel := context.WithTimeout(ctx.UserContext(), 60*time.Second)
	defer cancel()

	if err := c.Service.ExecuteJob(ctxt, name); err != nil {
		if errs.IsNotFound(err) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "Cron job executed successfully"})
}

// GetCronJobLogs godoc
func (c *CronController) GetCronJobLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)

	ctxt, cancel := context.WithTimeout(ctx.UserContext(), 10*time.Second)
	defer cancel()

	logs, err := c.Service.GetJobLogs(ctxt, ctx.Params("name"), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(logs)
}
