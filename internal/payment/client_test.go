package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateTransaction(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if user, _, ok := r.BasicAuth(); !ok || user != "server-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token":        "tok-123",
			"redirect_url": "https://gateway.example/pay/tok-123",
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, ServerKey: "server-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx, err := client.CreateTransaction(context.Background(), TransactionRequest{
		OrderCode:    "THANIELCAFE-1700000000000",
		GrossAmount:  45000.4,
		CustomerName: "Ayu",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Token != "tok-123" {
		t.Fatalf("expected token tok-123, got %s", tx.Token)
	}
	if gotPath != "/snap/v1/transactions" {
		t.Fatalf("unexpected path %s", gotPath)
	}

	details, ok := gotBody["transaction_details"].(map[string]any)
	if !ok {
		t.Fatalf("missing transaction_details in %v", gotBody)
	}
	if details["order_id"] != "THANIELCAFE-1700000000000" {
		t.Fatalf("unexpected order_id %v", details["order_id"])
	}
	if details["gross_amount"] != float64(45000) {
		t.Fatalf("expected rounded gross_amount 45000, got %v", details["gross_amount"])
	}
}

func TestCreateTransactionGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error_messages": []string{"Access denied due to unauthorized transaction"},
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, ServerKey: "bad-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.CreateTransaction(context.Background(), TransactionRequest{
		OrderCode:   "THANIELCAFE-1",
		GrossAmount: 100,
	})
	if err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	if _, err := New(Config{BaseURL: "https://gateway.example"}); err == nil {
		t.Fatal("expected error for missing server key")
	}

	client, err := New(Config{BaseURL: "https://gateway.example", ServerKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.CreateTransaction(context.Background(), TransactionRequest{OrderCode: "", GrossAmount: 10}); err == nil {
		t.Fatal("expected error for empty order code")
	}
	if _, err := client.CreateTransaction(context.Background(), TransactionRequest{OrderCode: "X", GrossAmount: 0}); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
