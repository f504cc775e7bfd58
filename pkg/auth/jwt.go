package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    string `json:"role"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns Sub as the numeric user id.
func (c *Claims) UserID() uint {
	id, _ := strconv.ParseUint(c.Sub, 10, 64)
	return uint(id)
}

// Identity is what a session carries about the user.
type Identity struct {
	ID      uint
	Name    string
	Surname string
	Email   string
	Role    string
}

type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) CreateAccessToken(id Identity) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	claims := Claims{
		Sub:     strconv.FormatUint(uint64(id.ID), 10),
		Name:    id.Name,
		Surname: id.Surname,
		Role:    id.Role,
		Email:   id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Signer) ParseValidate(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UserID() == 0 {
		return nil, errors.New("invalid token")
	}
	return c, nil
}
