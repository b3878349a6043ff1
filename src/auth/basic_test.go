package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfoliotracker/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userMap map[string]*model.User

func (m userMap) GetUserByUserName(_ context.Context, name string) (*model.User, error) {
	u, ok := m[name]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := userMap{
		"alice": {ID: 1, UserName: "alice", Password: string(hash), IsActive: true},
		"bob":   {ID: 2, UserName: "bob", Password: string(hash), IsActive: false},
	}

	var seen *model.User
	h := BasicAuth(users, "device")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name     string
		user     string
		password string
		setAuth  bool
		want     int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"unknown user", "carol", "secret", true, http.StatusUnauthorized},
		{"inactive user", "bob", "secret", true, http.StatusUnauthorized},
		{"wrong password", "alice", "nope", true, http.StatusUnauthorized},
		{"ok", "alice", "secret", true, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setAuth {
				req.SetBasicAuth(tc.user, tc.password)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="device"`, rr.Header().Get("WWW-Authenticate"))
				assert.Nil(t, seen)
			} else {
				require.NotNil(t, seen)
				assert.Equal(t, uint(1), seen.ID)
			}
		})
	}
}
