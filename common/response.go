package common

import (
	"errors"
	"fmt"
	"net/http"

	"go-rbac-admin/domain"
	"go-rbac-admin/validator"

	"github.com/gin-gonic/gin"
)

type ResponseT[T any] struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Data        T      `json:"data"`
	Description string `json:"description"`
}

var logger Logger

// SetLogger routes the response helpers' logging to l.
func SetLogger(l Logger) { logger = l }

// Response aborts the chain and writes the envelope. Client errors are logged
// at warn here; server faults are logged by ResponseError with their cause.
func Response[T any](c *gin.Context, status int, code string, data T, desc string) {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError && logger != nil {
		logger.Warn("Request rejected",
			"status", status,
			"code", code,
			"route", c.FullPath(),
			"method", c.Request.Method,
		)
	}
	c.AbortWithStatusJSON(status, ResponseT[T]{Status: status, Code: code, Data: data, Description: desc})
}

func ResponseOK[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusOK, "SUCCESS", data, desc)
}

func ResponseCreated[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusCreated, "SUCCESS", data, desc)
}

func ResponsePage[T any](c *gin.Context, items []T, pagination *domain.Pagination, desc string) {
	if items == nil {
		items = []T{}
	}
	ResponseOK(c, domain.PageResult[T]{Items: items, Pagination: pagination}, desc)
}

func ResponseBadRequest(c *gin.Context, desc string) {
	dErr := domain.ErrBadRequest.WithMessage(desc)
	Response[any](c, dErr.StatusCode(), dErr.Code(), dErr.Details(), desc)
}

// ResponseBindError answers a request whose body or query failed to bind,
// listing translated messages per field when validation caused it.
func ResponseBindError(c *gin.Context, err error) {
	if messages := validator.Messages(err); len(messages) > 0 {
		Response[any](c, http.StatusBadRequest, domain.ErrBadRequest.Code(), messages, domain.ErrBadRequest.Message())
		return
	}
	ResponseBadRequest(c, err.Error())
}

// ResponseError writes err as the JSON envelope. Errors that are not a
// DetailedError become a 500 without leaking their message. Server faults
// log the full cause with its stack trace.
func ResponseError(c *gin.Context, err error) {
	dErr, ok := IsDetailError(err)
	if !ok {
		dErr = domain.ErrInternalServerError.WithWrap(err)
	}

	if dErr.StatusCode() >= http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed",
			"code", dErr.Code(),
			"cause", fmt.Sprintf("%+v", dErr),
			"path", c.Request.URL.Path,
		)
	} else if reason := dErr.Reason(); reason != "" && logger != nil {
		logger.Debug("Request refused", "code", dErr.Code(), "reason", reason)
	}

	Response[any](c, dErr.StatusCode(), dErr.Code(), dErr.Details(), dErr.Message())
}

// IsRecordNotFound reports whether a repository found no matching row.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}

func IsDetailError(err error) (*domain.DetailedError, bool) {
	if err == nil {
		return nil, false
	}
	return domain.IsDetailedError(err)
}
