package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/moderation"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to HTTP status codes. Anything without a
// dedicated mapping is reported as a 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	var validation *moderation.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validation.Error()))
	case errors.Is(err, moderation.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "resource not found"))
	case errors.Is(err, moderation.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "you are not allowed to perform this action"))
	case errors.Is(err, moderation.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "resource is not in a state that allows this transition"))
	case errors.Is(err, moderation.ErrCapacityExhausted):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "event capacity is exhausted"))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// mustActor fetches the actor built by the ActorContext middleware; aborts
// with 401 when the middleware did not run for this route.
func mustActor(c *gin.Context) (moderation.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing request identity"))
		return moderation.Actor{}, false
	}
	return actor, true
}
