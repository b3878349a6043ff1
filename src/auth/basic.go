package auth

import (
	"context"
	"net/http"

	"portfoliotracker/src/model"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type UserFinder interface {
	GetUserByUserName(ctx context.Context, userName string) (*model.User, error)
}

// BasicAuth authenticates HTTP basic credentials against the stored bcrypt
// hash and puts the user into the request context.
func BasicAuth(users UserFinder, realm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, realm)
				return
			}

			user, err := users.GetUserByUserName(r.Context(), name)
			if err != nil || user == nil || !user.IsActive {
				logger.WithField("user_name", name).Warn("basic auth: unknown or inactive user")
				unauthorized(w, realm)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
				logger.WithField("user_id", user.ID).Warn("basic auth: password mismatch")
				unauthorized(w, realm)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
