package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type contextKey string

const SubjectKey contextKey = "subject"

// SecurityScheme is the OpenAPI scheme name operator routes declare.
const SecurityScheme = "bearerAuth"

// OperatorMiddleware rejects huma operations without a valid operator token
// and stores the operator's subject in the request context.
func (h *AuthHandler) OperatorMiddleware(api huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		subject, err := h.Authorize(ctx.Header("Authorization"))
		switch {
		case err == nil:
			next(huma.WithValue(ctx, SubjectKey, subject))
		case errors.Is(err, ErrForbidden):
			_ = huma.WriteErr(api, ctx, http.StatusForbidden, "Forbidden: operator role required")
		default:
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized: "+err.Error())
		}
	}
}

// Subject returns the operator subject stored by OperatorMiddleware.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(SubjectKey).(string)
	return s, ok
}
