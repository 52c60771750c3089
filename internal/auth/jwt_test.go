package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gdg-soe/ticketing/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := svc.Generate(userID, "admin@x.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %v, want %v", claims.UserID, userID)
	}
	if claims.Email != "admin@x.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
	}
}

func TestJWTValidateRejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	other := NewJWTService("other-secret", time.Hour)

	token, err := other.Generate(uuid.New(), "x@y.com", models.RoleAttendee)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("accepted token signed with a different secret")
	}
	if _, err := svc.Validate("not-a-token"); err == nil {
		t.Error("accepted malformed token")
	}
}

func TestJWTValidateRejectsForeignIssuer(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	claims := Claims{
		UserID: uuid.New(),
		Email:  "x@y.com",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "some-other-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("accepted token with a foreign issuer")
	}
}

func TestJWTValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, err := svc.Generate(uuid.New(), "x@y.com", models.RoleAttendee)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("accepted expired token")
	}
}
