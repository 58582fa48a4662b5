package token

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenCmd_Print(t *testing.T) {
	t.Setenv("JWT_SECRET", "shared")

	var out bytes.Buffer
	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--operator", "alice"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("shared"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("subject = %q", claims.Subject)
	}
}

func TestTokenCmd_Save(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JWT_SECRET", "shared")

	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--operator", "alice", "--save"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(home, ".bdayctl_token"))
	if err != nil || len(b) == 0 {
		t.Fatalf("saved token: %v %q", err, b)
	}
}

func TestTokenCmd_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BDAY_JWT_SECRET", "")

	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--operator", "alice"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error without secret")
	}
}
