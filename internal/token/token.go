// Package token issues and verifies the signed links sent to coaches.
//
// Action tokens authorise a single confirm or decline for one session or for
// every assigned session on one day, and expire after a configured age.
// Feed tokens only unlock the read-only calendar feed and never expire.
package token

import (
	"errors"
	"fmt"
	"time"

	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Scope string

const (
	SCOPE_SESSION Scope = "session-action"
	SCOPE_DAY     Scope = "day-action"
	SCOPE_FEED    Scope = "calendar-feed"
)

const issuer = "coach-schedule"

// DefaultActionMaxAge applies when no age is configured. Only feed tokens
// are unbounded.
const DefaultActionMaxAge = 7 * 24 * time.Hour

type Claims struct {
	SessionID string `json:"sid,omitempty"`
	Date      string `json:"day,omitempty"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret        string
	SessionMaxAge time.Duration
	DayMaxAge     time.Duration
	Now           func() time.Time
}

type Service struct {
	secret        []byte
	sessionMaxAge time.Duration
	dayMaxAge     time.Duration
	now           func() time.Time
}

func New(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = DefaultActionMaxAge
	}
	if opts.DayMaxAge <= 0 {
		opts.DayMaxAge = DefaultActionMaxAge
	}

	return &Service{
		secret:        []byte(opts.Secret),
		sessionMaxAge: opts.SessionMaxAge,
		dayMaxAge:     opts.DayMaxAge,
		now:           opts.Now,
	}
}

func (s *Service) SessionToken(coachID, sessionID string) (string, error) {
	return s.sign(SCOPE_SESSION, coachID, Claims{SessionID: sessionID})
}

func (s *Service) DayToken(coachID string, day time.Time) (string, error) {
	return s.sign(SCOPE_DAY, coachID, Claims{Date: day.Format(models.DateLayout)})
}

func (s *Service) FeedToken(coachID string) (string, error) {
	return s.sign(SCOPE_FEED, coachID, Claims{})
}

func (s *Service) sign(scope Scope, coachID string, claims Claims) (string, error) {
	const op = "token.Service.sign"

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Issuer:   issuer,
		Subject:  coachID,
		Audience: jwt.ClaimStrings{string(scope)},
		IssuedAt: jwt.NewNumericDate(s.now()),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// VerifySession returns the coach a session token was issued to. The token
// must name sessionID.
func (s *Service) VerifySession(raw, sessionID string) (string, error) {
	const op = "token.Service.VerifySession"

	claims, err := s.parse(raw, SCOPE_SESSION, s.sessionMaxAge)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if claims.SessionID == "" || claims.SessionID != sessionID {
		return "", fmt.Errorf("%s: session mismatch: %w", op, response.ErrToken)
	}

	return claims.Subject, nil
}

// VerifyDay returns the coach a day token was issued to. The token must name day.
func (s *Service) VerifyDay(raw string, day time.Time) (string, error) {
	const op = "token.Service.VerifyDay"

	claims, err := s.parse(raw, SCOPE_DAY, s.dayMaxAge)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if claims.Date == "" || claims.Date != day.Format(models.DateLayout) {
		return "", fmt.Errorf("%s: date mismatch: %w", op, response.ErrToken)
	}

	return claims.Subject, nil
}

func (s *Service) VerifyFeed(raw string) (string, error) {
	const op = "token.Service.VerifyFeed"

	claims, err := s.parse(raw, SCOPE_FEED, 0)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return claims.Subject, nil
}

// parse checks signature, scope and, when maxAge is positive, the age
// measured from issued-at. Every failure is reported as response.ErrToken.
func (s *Service) parse(raw string, scope Scope, maxAge time.Duration) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(scope)),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(response.ErrToken, err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("incomplete claims: %w", response.ErrToken)
	}

	if maxAge > 0 && s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, fmt.Errorf("issued %s ago: %w", s.now().Sub(claims.IssuedAt.Time).Round(time.Second), response.ErrToken)
	}

	return claims, nil
}
