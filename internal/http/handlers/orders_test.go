package handlers

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{name: "reserved to process", from: orderReserved, to: orderProcess, allowed: true},
		{name: "reserved to canceled", from: orderReserved, to: orderCanceled, allowed: true},
		{name: "process to settled", from: orderProcess, to: orderSettled, allowed: true},
		{name: "process to canceled", from: orderProcess, to: orderCanceled, allowed: true},
		{name: "reserved cannot settle directly", from: orderReserved, to: orderSettled, allowed: false},
		{name: "settled is terminal", from: orderSettled, to: orderProcess, allowed: false},
		{name: "canceled is terminal", from: orderCanceled, to: orderProcess, allowed: false},
		{name: "no self transition", from: orderProcess, to: orderProcess, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestTableStatusFor(t *testing.T) {
	cases := []struct {
		orderStatus string
		tableStatus string
	}{
		{orderReserved, tableReserved},
		{orderProcess, tableUnavailable},
		{orderSettled, tableAvailable},
		{orderCanceled, tableAvailable},
	}

	for _, tc := range cases {
		if got := tableStatusFor(tc.orderStatus); got != tc.tableStatus {
			t.Fatalf("tableStatusFor(%s) = %s, want %s", tc.orderStatus, got, tc.tableStatus)
		}
	}
}

func TestNewOrderCode(t *testing.T) {
	now := time.UnixMilli(1714988640123)
	code := newOrderCode("THANIELCAFE", now)

	if code != "THANIELCAFE-1714988640123" {
		t.Fatalf("unexpected order code %s", code)
	}

	prefix, rest, found := strings.Cut(code, "-")
	if !found || prefix != "THANIELCAFE" {
		t.Fatalf("expected prefix THANIELCAFE, got %s", code)
	}
	ms, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		t.Fatalf("suffix is not a millisecond timestamp: %v", err)
	}
	if ms != now.UnixMilli() {
		t.Fatalf("expected %d, got %d", now.UnixMilli(), ms)
	}
}
