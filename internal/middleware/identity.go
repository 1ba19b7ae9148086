package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const UserKey contextKey = "user_id"

// UserIdentity reads the optional userId query parameter, validates it and
// stores it in the request context. Requests without one run as DefaultUserID.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("userId")
		if user == "" {
			user = DefaultUserID
		}
		if err := ValidateUserID(user); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext extracts the user identifier from context
func GetUserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func WriteError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorBody{Status: status, Detail: detail})
}
