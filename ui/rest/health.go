package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	"github.com/AzielCF/az-gym/pkg/utils"
)

type Health struct {
	Version     string
	StoreDriver string
	Store       domainKV.IKeyValueStore
}

func InitRestHealth(app fiber.Router, version, storeDriver string, store domainKV.IKeyValueStore) Health {
	handler := Health{Version: version, StoreDriver: storeDriver, Store: store}
	app.Get("/api/health/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	results := fiber.Map{
		"version":      h.Version,
		"store_driver": h.StoreDriver,
	}

	if pinger, ok := h.Store.(domainKV.IPinger); ok {
		if err := pinger.Ping(c.UserContext()); err != nil {
			logrus.WithError(err).Warn("[REST] Store ping failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
				Status:  fiber.StatusServiceUnavailable,
				Code:    "STORE_UNAVAILABLE",
				Message: err.Error(),
				Results: results,
			})
		}
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service is running",
		Results: results,
	})
}
