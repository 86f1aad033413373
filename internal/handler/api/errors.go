package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"TradeDesk/internal/domain/models"
	xhttp "TradeDesk/pkg/http"
	xlogger "TradeDesk/pkg/logger"
)

// toAppError maps domain and gateway failures to HTTP errors. Remote kinds
// are checked first because a remote 404 also matches ErrNotFound.
func toAppError(err error) *xhttp.AppError {
	var re *models.RemoteError
	if errors.As(err, &re) {
		switch re.Kind {
		case models.RemoteUnauthorized:
			return xhttp.UnauthorizedError("backend rejected the credential").WithError(err)
		case models.RemoteNotFound:
			return xhttp.NotFoundError(re.Err.Error()).WithError(err)
		case models.RemoteUnreachable:
			return xhttp.ServiceUnavailableError("backend unreachable").WithError(err)
		default:
			return xhttp.BadGatewayError(re.Err.Error()).WithError(err)
		}
	}

	var ite *models.IllegalTransitionError
	switch {
	case errors.As(err, &ite):
		return xhttp.ConflictError(ite.Error()).WithParam("status", ite.From).WithError(err)
	case errors.Is(err, models.ErrConfirmationRequired):
		return xhttp.PreconditionRequiredError("repeat the request with confirm=true").WithError(err)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func violations(verr *models.ValidationError) []xhttp.ValidationError {
	out := make([]xhttp.ValidationError, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		out = append(out, xhttp.ValidationError{
			Code:    "ERR_" + strings.ToUpper(v.Tag),
			Field:   v.Field,
			Message: v.Message,
			Params:  xhttp.ValidationParams(v.Tag, v.Param),
		})
	}
	return out
}

// respondError renders err; server-side failures are logged.
func respondError(c echo.Context, l *xlogger.Logger, op string, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return xhttp.BadRequestResponse(c, violations(verr))
	}
	appErr := toAppError(err)
	if appErr.Status >= 500 && l != nil {
		l.Error(op+" failed", xlogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
