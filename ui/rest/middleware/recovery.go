package middleware

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-gym/pkg/error"
	"github.com/AzielCF/az-gym/pkg/utils"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				var genericErr pkgError.GenericError
				if e, ok := err.(error); ok && errors.As(e, &genericErr) {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = e.Error()
				}

				if res.Status >= 500 {
					logrus.Errorf("[REST] Panic recovered in middleware: %v", err)
				} else {
					logrus.Debugf("[REST] Request rejected: %v", err)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
