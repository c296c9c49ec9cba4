package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures token authentication. With Enabled false every
// connection may query immediately.
type AuthConfig struct {
	Enabled bool

	// JWTSecret is the shared HMAC secret (HS256, HS384, HS512).
	JWTSecret string

	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string

	// Claims holding the caller's name and email, default "name" and "email".
	NameClaim  string
	EmailClaim string
}

// Identity is the caller named by an accepted token.
type Identity struct {
	Name  string
	Email string
}

func (identity Identity) String() string {
	switch {
	case identity.Email == "":
		return identity.Name
	case identity.Name == "":
		return identity.Email
	}
	return fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
}

// ConnectionState tracks the authentication of one client connection.
type ConnectionState struct {
	identity      *Identity
	authenticated bool
	tokenExpiry   time.Time
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

func (cs *ConnectionState) Identity() *Identity {
	return cs.identity
}

func (cs *ConnectionState) expired(now time.Time) bool {
	return cs.authenticated && !cs.tokenExpiry.IsZero() && now.After(cs.tokenExpiry)
}

type authResult struct {
	identity  Identity
	expiresAt time.Time
	err       error
}

func claimName(claim, fallback string) string {
	if claim == "" {
		return fallback
	}
	return claim
}

func (s *Server) validateJWT(tokenString string) authResult {
	if s.authConfig == nil || s.authConfig.JWTSecret == "" {
		return authResult{err: errors.New("authentication not configured")}
	}
	nameClaim := claimName(s.authConfig.NameClaim, "name")
	emailClaim := claimName(s.authConfig.EmailClaim, "email")

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if s.authConfig.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.authConfig.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	}, options...)
	if err != nil {
		return authResult{err: fmt.Errorf("invalid token: %w", err)}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return authResult{err: errors.New("invalid token claims")}
	}

	if s.authConfig.Audience != "" {
		audiences, _ := claims.GetAudience()
		if !slices.Contains(audiences, s.authConfig.Audience) {
			return authResult{err: fmt.Errorf("invalid audience: expected %s", s.authConfig.Audience)}
		}
	}

	name, _ := claims[nameClaim].(string)
	email, _ := claims[emailClaim].(string)
	if name == "" && email == "" {
		return authResult{err: fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return authResult{
		identity:  Identity{Name: name, Email: email},
		expiresAt: expiresAt,
	}
}

// isAuthCommand reports whether the line starts with the AUTH keyword.
func isAuthCommand(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], "AUTH")
}

// parseAuthCommand splits "AUTH JWT <token>".
func parseAuthCommand(line string) (authType, token string, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "AUTH") {
		return "", "", errors.New("not an AUTH command")
	}
	if len(parts) != 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	if authType != "JWT" {
		return "", "", fmt.Errorf("unsupported auth type: %s", parts[1])
	}
	return authType, parts[2], nil
}

func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	_, token, err := parseAuthCommand(line)
	if err != nil {
		return Response{Success: false, Type: "auth", Error: err.Error()}
	}

	result := s.validateJWT(token)
	if result.err != nil {
		return Response{Success: false, Type: "auth", Error: result.err.Error()}
	}

	state.identity = &result.identity
	state.authenticated = true
	state.tokenExpiry = result.expiresAt

	ar := AuthResponse{
		Authenticated: true,
		Identity:      result.identity.String(),
	}
	if !result.expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(result.expiresAt).Seconds())
	}

	data, _ := json.Marshal(ar)
	return Response{Success: true, Type: "auth", Result: data}
}
