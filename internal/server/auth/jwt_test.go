package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	h := &sessions.Handle{AccountID: "acc-123", SessionID: "sess-1", AcquiredAt: time.Unix(1700000000, 0)}

	tok, err := GenerateSessionToken(h, secret)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	got, err := ParseSessionToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if got.AccountID != h.AccountID || got.SessionID != h.SessionID {
		t.Fatalf("handle mismatch: got %+v want %+v", got, h)
	}
	if !got.AcquiredAt.Equal(h.AcquiredAt) {
		t.Fatalf("acquired at mismatch: got %v want %v", got.AcquiredAt, h.AcquiredAt)
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateSessionToken(&sessions.Handle{AccountID: "a", SessionID: "s"}, []byte("right-secret"))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	_, err = ParseSessionToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseSessionToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "s"},
		AccountID:        "a",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseSessionToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_MissingClaims(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseSessionToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
