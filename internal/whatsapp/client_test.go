package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestClient_SendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %s, want Bearer test-token", got)
		}

		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗: %v", err)
		}
		if req.Phone != "+33612345678" || req.Message != "hello" {
			t.Errorf("request = %+v, want phone/message to be forwarded", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"message_id": "wamid.123", "status": "sent"})
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "test-token")

	meta, err := c.SendMessage(context.Background(), "+33612345678", "hello")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if meta["message_id"] != "wamid.123" {
		t.Errorf("meta = %+v, want gateway response passed through", meta)
	}
}

func TestClient_SendMessage_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "test-token")

	if _, err := c.SendMessage(context.Background(), "+33612345678", "hello"); err == nil {
		t.Fatal("expected error for gateway error status")
	}
}

func TestClient_SendOTP_IncludesCode(t *testing.T) {
	var gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotMessage = req.Message
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "test-token")

	if err := c.SendOTP(context.Background(), "+33612345678", "424242"); err != nil {
		t.Fatalf("SendOTP returned error: %v", err)
	}
	if !strings.Contains(gotMessage, "424242") {
		t.Errorf("message %q should contain the OTP code", gotMessage)
	}
}
