package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/util"
)

const (
	loginFailedMsg    = "이메일 또는 비밀번호가 올바르지 않습니다."
	authRequiredMsg   = "인증이 필요합니다."
	forbiddenMsg      = "권한이 없습니다."
	invalidInputMsg   = "입력값이 올바르지 않습니다."
	emailTakenMsg     = "이미 가입된 이메일입니다."
	deviceTakenMsg    = "이미 등록된 기기입니다."
	notFoundMsg       = "요청하신 엔드포인트를 찾을 수 없습니다."
	internalErrorMsg  = "서버 내부 오류가 발생했습니다."
	methodNotAllowed  = "허용되지 않은 요청 방식입니다."
	requestTooLarge   = "요청 본문이 너무 큽니다."
	unavailableMsg    = "일시적으로 서비스를 이용할 수 없습니다."
	tooManyRequestMsg = "요청이 너무 많습니다."
)

// ErrorHandler renders every failure as {success:false, message[, errors]}.
// Internal causes are logged, never echoed to the client.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		switch {
		case status >= http.StatusInternalServerError:
			log.Errorw("request failed", "error", err, "method", c.Request().Method, "uri", c.Request().RequestURI)
		case status == http.StatusUnauthorized:
			log.Debugw("request unauthenticated", "error", err, "uri", c.Request().RequestURI)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			log.Errorw("failed to write json response", "error", writeErr)
		}
	}
}

func classify(err error) (int, models.ErrorResponse) {
	var (
		validationErr *util.ValidationError
		responseErr   util.MyResponseError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return failure(http.StatusUnauthorized, loginFailedMsg)
	case errors.Is(err, service.ErrUnauthenticated):
		return failure(http.StatusUnauthorized, authRequiredMsg)
	case errors.Is(err, service.ErrForbidden):
		return failure(http.StatusForbidden, forbiddenMsg)
	case errors.Is(err, service.ErrEmailTaken):
		return failure(http.StatusConflict, emailTakenMsg)
	case errors.Is(err, service.ErrDeviceTaken):
		return failure(http.StatusConflict, deviceTakenMsg)
	case errors.As(err, &validationErr):
		status, body := failure(validationErr.Status(), invalidInputMsg)
		body.Errors = validationErr.Details
		return status, body
	case errors.As(err, &responseErr):
		if responseErr.Status >= http.StatusInternalServerError {
			return failure(responseErr.Status, internalErrorMsg)
		}
		return failure(responseErr.Status, responseErr.Msg)
	case errors.As(err, &httpErr):
		return classifyHTTPError(httpErr)
	default:
		return failure(http.StatusInternalServerError, internalErrorMsg)
	}
}

func classifyHTTPError(he *echo.HTTPError) (int, models.ErrorResponse) {
	switch he.Code {
	case http.StatusBadRequest:
		status, body := failure(he.Code, invalidInputMsg)
		if detail := fmt.Sprint(he.Message); detail != "" {
			body.Errors = []string{detail}
		}
		return status, body
	case http.StatusUnauthorized:
		return failure(he.Code, authRequiredMsg)
	case http.StatusForbidden:
		return failure(he.Code, forbiddenMsg)
	case http.StatusNotFound:
		return failure(he.Code, notFoundMsg)
	case http.StatusMethodNotAllowed:
		return failure(he.Code, methodNotAllowed)
	case http.StatusRequestEntityTooLarge:
		return failure(he.Code, requestTooLarge)
	case http.StatusTooManyRequests:
		return failure(he.Code, tooManyRequestMsg)
	case http.StatusServiceUnavailable:
		return failure(he.Code, unavailableMsg)
	}
	if he.Code >= http.StatusInternalServerError {
		return failure(he.Code, internalErrorMsg)
	}
	return failure(he.Code, fmt.Sprint(he.Message))
}

func failure(status int, msg string) (int, models.ErrorResponse) {
	return status, models.ErrorResponse{Success: false, Message: msg}
}
