package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dejobratic/posrelay/internal/rpc"
)

type webhookBody struct {
	OrderID int64 `json:"order_id"`
}

func TestClientCall(t *testing.T) {
	t.Run("posts JSON with API key", func(t *testing.T) {
		var (
			gotMethod string
			gotPath   string
			gotKey    string
			gotType   string
			gotBody   []byte
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotKey = r.Header.Get("X-API-Key")
			gotType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"relayed":true}`))
		}))
		defer server.Close()

		client, err := rpc.NewClient(rpc.Config{BaseURL: server.URL + "/", APIKey: "secret"})
		if err != nil {
			t.Fatalf("NewClient() failed: %v", err)
		}

		if err := client.Call(context.Background(), "/pos/order/webhook", webhookBody{OrderID: 42}); err != nil {
			t.Fatalf("Call() failed: %v", err)
		}

		if gotMethod != http.MethodPost {
			t.Errorf("expected POST, got %s", gotMethod)
		}
		if gotPath != "/pos/order/webhook" {
			t.Errorf("expected path /pos/order/webhook, got %s", gotPath)
		}
		if gotKey != "secret" {
			t.Errorf("expected API key header, got %q", gotKey)
		}
		if gotType != "application/json" {
			t.Errorf("expected JSON content type, got %q", gotType)
		}
		if string(gotBody) != `{"order_id":42}` {
			t.Errorf("expected body {\"order_id\":42}, got %s", gotBody)
		}
	})

	t.Run("reports non-2xx as status failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "upstream"})
		}))
		defer server.Close()

		client, _ := rpc.NewClient(rpc.Config{BaseURL: server.URL})
		err := client.Call(context.Background(), "/pos/order/webhook", webhookBody{OrderID: 1})

		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) {
			t.Fatalf("expected *rpc.Error, got %v", err)
		}
		if rpcErr.FailureKind() != rpc.KindStatus {
			t.Errorf("expected kind %s, got %s", rpc.KindStatus, rpcErr.FailureKind())
		}
		if rpcErr.StatusCode != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rpcErr.StatusCode)
		}
	})

	t.Run("reports slow backend as timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client, _ := rpc.NewClient(rpc.Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
		err := client.Call(context.Background(), "/pos/order/webhook", webhookBody{OrderID: 1})

		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) || rpcErr.FailureKind() != rpc.KindTimeout {
			t.Errorf("expected timeout failure, got %v", err)
		}
	})

	t.Run("sends bearer token and honors accepted statuses", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, _ := rpc.NewClient(rpc.Config{BaseURL: server.URL},
			rpc.WithBearerToken("tok"),
			rpc.WithAcceptedStatus(http.StatusCreated),
		)
		err := client.Call(context.Background(), "/status", webhookBody{OrderID: 1})

		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", gotAuth)
		}
		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) || rpcErr.FailureKind() != rpc.KindStatus || rpcErr.StatusCode != http.StatusOK {
			t.Errorf("expected 200 to be rejected as status failure, got %v", err)
		}
	})

	t.Run("reports caller cancellation as transport failure", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		client, _ := rpc.NewClient(rpc.Config{BaseURL: server.URL, Timeout: time.Minute})
		err := client.Call(ctx, "/pos/order/webhook", webhookBody{OrderID: 1})
		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) || rpcErr.FailureKind() != rpc.KindTransport {
			t.Errorf("expected transport failure, got %v", err)
		}
	})

	t.Run("reports unreachable backend as transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, _ := rpc.NewClient(rpc.Config{BaseURL: url})
		err := client.Call(context.Background(), "/pos/order/webhook", webhookBody{OrderID: 1})

		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) || rpcErr.FailureKind() != rpc.KindTransport {
			t.Errorf("expected transport failure, got %v", err)
		}
	})

	t.Run("reports unencodable payload", func(t *testing.T) {
		client, _ := rpc.NewClient(rpc.Config{BaseURL: "http://localhost:1"})
		err := client.Call(context.Background(), "/pos/order/webhook", map[string]any{"bad": make(chan int)})

		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) || rpcErr.FailureKind() != rpc.KindEncode {
			t.Errorf("expected encode failure, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     rpc.Config
		wantErr bool
	}{
		{"valid config", rpc.Config{BaseURL: "http://localhost:8080", Timeout: time.Second}, false},
		{"missing base URL", rpc.Config{}, true},
		{"negative timeout", rpc.Config{BaseURL: "http://localhost:8080", Timeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
