package jwt

import (
	"testing"

	"nexchat_server/pkg/errorx"
)

func init() {
	Init("test-secret-at-least-32-characters!", 30, 168)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("U_alice", "session-token-1")
	if err != nil {
		t.Fatal(err)
	}

	userID, sessionID, err := VerifyAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "U_alice" || sessionID != "session-token-1" {
		t.Fatalf("claims: user=%s session=%s", userID, sessionID)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	token, tokenID, err := GenerateRefreshToken("U_alice", "session-token-1")
	if err != nil {
		t.Fatal(err)
	}
	if tokenID == "" {
		t.Fatal("refresh token id should be assigned")
	}

	// Refresh Token 不能当 Access Token 用
	if _, _, err := VerifyAccessToken(token); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// 但能正常解析出声明
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "refresh_token" || claims.SessionID != "session-token-1" {
		t.Fatalf("claims: %+v", claims)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateAccessToken("U_alice", "session-token-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := VerifyAccessToken(token + "x"); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("expected unauthorized for tampered token, got %v", err)
	}
	if _, _, err := VerifyAccessToken("not-a-jwt"); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("expected unauthorized for garbage, got %v", err)
	}
}
