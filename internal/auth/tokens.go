package auth

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"

	"bridge/internal/engine"
)

// TokenService signs and checks the seat tokens handed out when a player
// claims a seat. A token binds one table, one seat and the claim that was
// current when it was issued.
type TokenService struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

const issuer = "bridge"

type SeatClaim struct {
	TableID string
	Seat    engine.Seat
	// ClaimID identifies one occupancy of the seat. It changes every time the
	// seat is claimed again.
	ClaimID string
	Subject string
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

func (s *TokenService) Issue(c SeatClaim) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if s.secret == "" {
		return "", fmt.Errorf("token secret is not configured")
	}
	if c.TableID == "" {
		return "", fmt.Errorf("table id is required")
	}
	if !c.Seat.Valid() {
		return "", fmt.Errorf("invalid seat %d", c.Seat)
	}
	if c.ClaimID == "" {
		return "", fmt.Errorf("claim id is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"sub":   c.Subject,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
		"table": c.TableID,
		"seat":  c.Seat.String(),
		"claim": c.ClaimID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *TokenService) Verify(raw string) (SeatClaim, error) {
	if s == nil || s.secret == "" {
		return SeatClaim{}, fmt.Errorf("token secret is not configured")
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return SeatClaim{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return SeatClaim{}, fmt.Errorf("invalid token")
	}
	if !claims.VerifyIssuer(issuer, true) {
		return SeatClaim{}, fmt.Errorf("unexpected issuer")
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return SeatClaim{}, fmt.Errorf("token expired")
	}
	tableID, _ := claims["table"].(string)
	seatName, _ := claims["seat"].(string)
	claimID, _ := claims["claim"].(string)
	seat, err := engine.ParseSeat(seatName)
	if tableID == "" || claimID == "" || err != nil {
		return SeatClaim{}, fmt.Errorf("token does not name a seat")
	}
	subject, _ := claims["sub"].(string)
	return SeatClaim{TableID: tableID, Seat: seat, ClaimID: claimID, Subject: subject}, nil
}
