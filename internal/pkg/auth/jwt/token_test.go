package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateParseRoundTrip(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 42, Email: "ada@example.com"}, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	payload, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if payload.UserID != 42 || payload.Email != "ada@example.com" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Issuer != TokenIssuer {
		t.Fatalf("issuer = %q, want %q", payload.Issuer, TokenIssuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 1}, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Fatal("token signed with a different secret parsed successfully")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: 1}, "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(token, "secret"); err == nil {
		t.Fatal("expired token parsed successfully")
	}
}

func TestRequireAuth(t *testing.T) {
	var gotPayload *Payload
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPayload = GetPayloadFromContext(r)
	})
	protected := RequireAuth("secret")(next)

	token, err := GenerateToken(&Payload{UserID: 7}, "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		gotPayload = nil
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)

		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
		if tc.want == http.StatusOK && (gotPayload == nil || gotPayload.UserID != 7) {
			t.Errorf("%s: payload not propagated: %+v", tc.name, gotPayload)
		}
	}
}
