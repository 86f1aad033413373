package http

import (
	"errors"
	"fmt"
	"strings"

	"TradeDesk/pkg/validate"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestErrors converts a bind or validation failure into response details.
func RequestErrors(err error) []ValidationError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make([]ValidationError, 0, len(validationErrors))
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Code:    "ERR_" + strings.ToUpper(e.Tag()),
				Field:   e.Field(),
				Message: validate.Message(e),
				Params:  ValidationParams(e.Tag(), e.Param()),
			})
		}
		return errs
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{
			Code:    "ERR_BAD_BODY",
			Message: fmt.Sprintf("%v", he.Message),
		}}
	}

	return []ValidationError{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}

// ValidationParams exposes the rule argument so clients can render it.
func ValidationParams(tag, param string) map[string]interface{} {
	if param == "" {
		return nil
	}
	p := make(map[string]interface{})

	switch tag {
	case "min", "gte":
		p["min"] = param
	case "max", "lte":
		p["max"] = param
	case "gt", "lt":
		p["value"] = param
	case "oneof":
		p["options"] = strings.Split(param, " ")
	}

	if len(p) == 0 {
		return nil
	}
	return p
}
