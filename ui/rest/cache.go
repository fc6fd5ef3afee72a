package rest

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
	"github.com/AzielCF/az-gym/pkg/timeutils"
	"github.com/AzielCF/az-gym/pkg/utils"
	"github.com/AzielCF/az-gym/validations"
)

type Cache struct {
	Service domainCache.ICacheUsecase
}

func InitRestCache(app fiber.Router, service domainCache.ICacheUsecase) Cache {
	rest := Cache{Service: service}

	group := app.Group("/api/cache")
	group.Get("/keys", rest.ListKeys)
	group.Get("/entries/:key", rest.GetEntry)
	group.Delete("/entries/:key", rest.RemoveEntry)
	group.Post("/clear", rest.ClearAll)
	group.Post("/clear-user", rest.ClearUser)
	group.Post("/clear-leaderboard", rest.ClearLeaderboard)

	return rest
}

func (handler *Cache) ListKeys(c *fiber.Ctx) error {
	keys := handler.Service.Keys(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache keys retrieved",
		Results: keys,
	})
}

func (handler *Cache) GetEntry(c *fiber.Ctx) error {
	request, err := entryRequest(c, handler.Service.FetchDefaults().MaxAge)
	utils.PanicIfNeeded(err)
	utils.PanicIfNeeded(validations.ValidateEntryRequest(c.UserContext(), request))

	entry, ok := handler.Service.Entry(c.UserContext(), request.Key, request.MaxAge)
	if !ok {
		utils.PanicIfNeeded(pkgError.NotFoundError("cache entry not found: " + request.Key))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache entry retrieved",
		Results: domainCache.EntryResponse{
			Key:       request.Key,
			Data:      entry.Data,
			Timestamp: entry.Timestamp,
			Age:       timeutils.FormatCacheAge(entry.Age),
			IsStale:   entry.IsStale,
			Version:   entry.Version,
		},
	})
}

func (handler *Cache) RemoveEntry(c *fiber.Ctx) error {
	request, err := entryRequest(c, 0)
	utils.PanicIfNeeded(err)
	utils.PanicIfNeeded(validations.ValidateEntryRequest(c.UserContext(), request))

	handler.Service.Remove(c.UserContext(), request.Key)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache entry removed",
	})
}

func (handler *Cache) ClearAll(c *fiber.Ctx) error {
	handler.Service.ClearAll(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache cleared successfully",
	})
}

func (handler *Cache) ClearUser(c *fiber.Ctx) error {
	handler.Service.ClearUser(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "User cache cleared successfully",
	})
}

func (handler *Cache) ClearLeaderboard(c *fiber.Ctx) error {
	handler.Service.ClearLeaderboard(c.UserContext())

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Leaderboard cache cleared successfully",
	})
}

func entryRequest(c *fiber.Ctx, defaultMaxAge time.Duration) (domainCache.EntryRequest, error) {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		return domainCache.EntryRequest{}, pkgError.ValidationError("key: invalid escaping")
	}

	request := domainCache.EntryRequest{Key: key, MaxAge: defaultMaxAge}
	if raw := c.Query("max_age"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return request, pkgError.ValidationError("max_age: must be a duration such as 5m or 1h")
		}
		request.MaxAge = d
	}
	return request, nil
}
