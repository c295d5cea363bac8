package store

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/go-faster/errors"
)

// HashToken returns the hex HMAC-SHA256 of token keyed with pepper. Store
// tokens are persisted only in this form.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Gateway resolves store identity from caller tokens and reference data by
// code or id.
type Gateway struct {
	repo   Repository
	pepper []byte
}

// NewGateway creates a Gateway over repo. pepper keys the token HMAC.
func NewGateway(repo Repository, pepper []byte) *Gateway {
	return &Gateway{repo: repo, pepper: pepper}
}

// ResolveStore returns the store owning token, or ErrUnknownToken.
func (g *Gateway) ResolveStore(ctx context.Context, token string) (*Store, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnknownToken
	}

	hash := HashToken(g.pepper, token)
	s, err := g.repo.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownToken
		}
		return nil, errors.Wrap(err, "find store by token")
	}

	// The row was selected by hash; compare again in constant time so a
	// repository returning the wrong row cannot authenticate the caller.
	if subtle.ConstantTimeCompare([]byte(hash), []byte(s.TokenHash)) != 1 {
		return nil, ErrUnknownToken
	}
	return s, nil
}

// ResolvePrimaryCurrency returns the primary currency of s.
func (g *Gateway) ResolvePrimaryCurrency(ctx context.Context, s *Store) (*Currency, error) {
	c, err := g.repo.CurrencyByID(ctx, s.PrimaryCurrencyID)
	if err != nil {
		return nil, errors.Wrapf(err, "primary currency %d of store %d", s.PrimaryCurrencyID, s.ID)
	}
	return c, nil
}

// ResolveCountry returns the country with the given two-letter ISO code.
// A miss wraps ErrNotFound.
func (g *Gateway) ResolveCountry(ctx context.Context, isoCode string) (*Country, error) {
	code := strings.ToUpper(strings.TrimSpace(isoCode))
	if len(code) != 2 {
		return nil, errors.Wrapf(ErrNotFound, "country %q", isoCode)
	}
	c, err := g.repo.CountryByISOCode(ctx, code)
	if err != nil {
		return nil, errors.Wrapf(err, "country %q", isoCode)
	}
	return c, nil
}

// ResolveLocale returns the language called name. Only SupportedLocale is
// accepted; any other name fails with ErrNotFound without a lookup.
func (g *Gateway) ResolveLocale(ctx context.Context, name string) (*Locale, error) {
	if name != SupportedLocale {
		return nil, errors.Wrapf(ErrNotFound, "locale %q is not supported", name)
	}
	l, err := g.repo.LanguageByName(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "locale %q", name)
	}
	return l, nil
}
