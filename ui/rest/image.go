package rest

import (
	"github.com/gofiber/fiber/v2"

	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
	"github.com/AzielCF/az-gym/pkg/utils"
	"github.com/AzielCF/az-gym/validations"
)

type Image struct {
	Service domainImage.IImageCacheUsecase
}

func InitRestImage(app fiber.Router, service domainImage.IImageCacheUsecase) Image {
	rest := Image{Service: service}

	group := app.Group("/api/images")
	group.Get("/", rest.GetCachedImage)
	group.Post("/", rest.CacheImage)
	group.Post("/clear", rest.ClearImageCache)
	group.Post("/clear-expired", rest.ClearExpiredCache)
	group.Get("/stats", rest.GetStats)

	return rest
}

func (handler *Image) GetCachedImage(c *fiber.Ctx) error {
	request := domainImage.CacheImageRequest{URL: c.Query("url")}
	utils.PanicIfNeeded(validations.ValidateCacheImage(c.UserContext(), request))

	localURI, ok := handler.Service.GetCachedImage(c.UserContext(), request.URL)
	if !ok {
		utils.PanicIfNeeded(pkgError.NotFoundError("image not cached: " + request.URL))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cached image found",
		Results: domainImage.CacheImageResponse{URL: request.URL, LocalURI: localURI},
	})
}

func (handler *Image) CacheImage(c *fiber.Ctx) error {
	var request domainImage.CacheImageRequest
	if err := c.BodyParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError("invalid request body: " + err.Error()))
	}
	utils.PanicIfNeeded(validations.ValidateCacheImage(c.UserContext(), request))

	localURI, err := handler.Service.CacheImage(c.UserContext(), request.URL)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Image cached",
		Results: domainImage.CacheImageResponse{URL: request.URL, LocalURI: localURI},
	})
}

func (handler *Image) ClearImageCache(c *fiber.Ctx) error {
	removed, err := handler.Service.ClearImageCache(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Image cache cleared successfully",
		Results: fiber.Map{"removed": removed},
	})
}

func (handler *Image) ClearExpiredCache(c *fiber.Ctx) error {
	removed, err := handler.Service.ClearExpiredCache(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Expired images removed",
		Results: fiber.Map{"removed": removed},
	})
}

func (handler *Image) GetStats(c *fiber.Ctx) error {
	stats, err := handler.Service.GetStats(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Image cache stats retrieved",
		Results: stats,
	})
}
