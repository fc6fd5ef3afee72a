package rest

import (
	"github.com/gofiber/fiber/v2"

	domainSession "github.com/AzielCF/az-gym/domains/session"
	"github.com/AzielCF/az-gym/pkg/utils"
	"github.com/AzielCF/az-gym/validations"
)

type Auth struct {
	Service domainSession.IAuthStorage
}

func InitRestAuth(app fiber.Router, service domainSession.IAuthStorage) Auth {
	rest := Auth{Service: service}
	app.Delete("/api/auth/:scope", rest.ClearAllAuthData)

	return rest
}

func (handler *Auth) ClearAllAuthData(c *fiber.Ctx) error {
	request := domainSession.ClearAuthRequest{Scope: c.Params("scope")}
	utils.PanicIfNeeded(validations.ValidateClearAuth(c.UserContext(), request))

	removed, err := handler.Service.ClearAllAuthData(c.UserContext(), request.Scope)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Auth data cleared for " + request.Scope,
		Results: fiber.Map{"removed": removed},
	})
}
