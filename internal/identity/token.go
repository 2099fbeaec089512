package identity

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller identity extracted from a bearer token.
// Subject is the provider-side user id; the profile claims are optional.
type Identity struct {
	Subject    string
	Email      string
	Name       string
	Nickname   string
	PictureURL string
}

var errInvalidToken = errors.New("invalid or expired token")

// ParseIdentity validates an HS256 bearer token and extracts the caller
// identity from its claims.
func ParseIdentity(secret []byte, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errInvalidToken
	}

	id := &Identity{Subject: sub}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Nickname, _ = claims["nickname"].(string)
	id.PictureURL, _ = claims["picture"].(string)
	return id, nil
}

// MintToken issues a token for the given identity. Used by tests and by
// local development where no external provider is wired up.
func MintToken(secret []byte, id Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      id.Subject,
		"email":    id.Email,
		"name":     id.Name,
		"nickname": id.Nickname,
		"picture":  id.PictureURL,
		"exp":      time.Now().Add(ttl).Unix(),
		"iss":      "chatterbox-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
