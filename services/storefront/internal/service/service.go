// Package service implements the storefront's use cases on top of the
// repositories, cart stores and external gateways.
package service

import (
	"io"
	"net/mail"
	"sort"
	"strings"

	"github.com/you/curtain-store/pkg/apperr"
)

// Upload is a file received from a client.
type Upload struct {
	Name string
	Body io.Reader
}

const (
	minPasswordLen = 8
	// bcrypt refuses longer input.
	maxPasswordLen = 72
)

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperr.Validation("missing fields: " + strings.Join(missing, ", "))
}

func validEmail(s string) error {
	a, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || a.Address != strings.TrimSpace(s) {
		return apperr.Validation("invalid email")
	}
	return nil
}

func validPassword(s string) error {
	if len(s) < minPasswordLen {
		return apperr.Validation("password must be at least 8 characters")
	}
	if len(s) > maxPasswordLen {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}

