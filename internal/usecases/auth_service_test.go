package usecases

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthService_Login(t *testing.T) {
	auth, err := NewAuthService("root", "hunter2", "test-secret")
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	signed, err := auth.Login("root", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "root" || claims["role"] != "admin" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	auth, err := NewAuthService("root", "hunter2", "test-secret")
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	if _, err := auth.Login("root", "wrong"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := auth.Login("nobody", "hunter2"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}
