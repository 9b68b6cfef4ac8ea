package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores usan el nombre JSON del campo.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// bind parsea el cuerpo JSON y valida los tags. Si falla ya escribió la respuesta y ok=false.
func bind(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, invalidBody(c)
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "datos inválidos",
			Details: formatValidationError(err),
		})
	}
	return true, nil
}

func formatValidationError(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s es obligatorio", field)
		case "max":
			out[field] = fmt.Sprintf("%s admite como máximo %s", field, fe.Param())
		case "min":
			out[field] = fmt.Sprintf("%s requiere al menos %s", field, fe.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s admite como máximo %s", field, fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s debe ser uno de: %s", field, fe.Param())
		case "nefield":
			out[field] = fmt.Sprintf("%s debe ser distinto de %s", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("%s es inválido", field)
		}
	}
	return out
}
