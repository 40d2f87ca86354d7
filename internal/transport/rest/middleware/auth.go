package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// ErrInvalidToken is returned for a token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// AuthMiddleware checks HS256 bearer tokens whose subject is a user id.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates a middleware verifying tokens with secret.
func NewAuthMiddleware(secret []byte) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

// IssueToken signs a token for userID. Used by tooling and tests.
func (m *AuthMiddleware) IssueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})
	return token.SignedString(m.secret)
}

// Subject verifies tokenString and returns its subject claim.
func (m *AuthMiddleware) Subject(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RequireUser rejects requests whose token subject differs from the userId path variable.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token := extractBearerToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		subject, err := m.Subject(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		if subject != mux.Vars(r)["userId"] {
			writeMessage(w, http.StatusForbidden, "token does not match user")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
