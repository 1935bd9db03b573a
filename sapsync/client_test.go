package sapsync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServiceLayer(t *testing.T, handler http.Handler) *serviceLayerClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("SAP_BASE_URL", server.URL)
	t.Setenv("SAP_COMPANY_DB", "TESTDB")
	t.Setenv("SAP_USERNAME", "manager")
	t.Setenv("SAP_PASSWORD", "secret")

	client, err := newServiceLayerClient()
	if err != nil {
		t.Fatalf("newServiceLayerClient: %v", err)
	}
	return client
}

func TestClientLoginAndQueryList(t *testing.T) {
	var loginCount int32

	mux := http.NewServeMux()
	mux.HandleFunc("/b1s/v1/Login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loginCount, 1)
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.CompanyDB != "TESTDB" || body.UserName != "manager" || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "B1SESSION", Value: "session-1"})
		w.Write([]byte(`{"SessionId":"session-1"}`))
	})
	mux.HandleFunc("/b1s/v1/SQLQueries('ItemMaster')/List", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("B1SESSION")
		if err != nil || cookie.Value != "session-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"value":[{"ItemCode":"A1"},{"ItemCode":"A2"}]}`))
	})

	client := newTestServiceLayer(t, mux)

	rows, err := client.QueryList(t.Context(), "ItemMaster", "")
	if err != nil {
		t.Fatalf("QueryList: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d; want 2", len(rows))
	}
	if atomic.LoadInt32(&loginCount) != 1 {
		t.Fatalf("login count=%d; want 1 (lazy login once)", loginCount)
	}

	// second query reuses the session
	if _, err := client.QueryList(t.Context(), "ItemMaster", ""); err != nil {
		t.Fatalf("second QueryList: %v", err)
	}
	if atomic.LoadInt32(&loginCount) != 1 {
		t.Fatalf("login count=%d; want 1 after session reuse", loginCount)
	}
}

func TestClientRenewsSessionOn401(t *testing.T) {
	var loginCount int32

	mux := http.NewServeMux()
	mux.HandleFunc("/b1s/v1/Login", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&loginCount, 1)
		http.SetCookie(w, &http.Cookie{Name: "B1SESSION", Value: map[int32]string{1: "stale", 2: "fresh"}[n]})
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/b1s/v1/SQLQueries('ItemMaster')/List", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("B1SESSION")
		if err != nil || cookie.Value != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"value":[{"ItemCode":"A1"}]}`))
	})

	client := newTestServiceLayer(t, mux)

	rows, err := client.QueryList(t.Context(), "ItemMaster", "")
	if err != nil {
		t.Fatalf("QueryList after renewal: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d; want 1", len(rows))
	}
	if atomic.LoadInt32(&loginCount) != 2 {
		t.Fatalf("login count=%d; want 2 (initial + renewal)", loginCount)
	}
}

func TestClientQueryListPassesFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/b1s/v1/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "B1SESSION", Value: "s"})
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/b1s/v1/SQLQueries('BusinessPartnerMaster')/List", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("$filter"); got != "CardType eq 'S'" {
			t.Errorf("$filter=%q", got)
		}
		w.Write([]byte(`{"value":[]}`))
	})

	client := newTestServiceLayer(t, mux)
	if _, err := client.QueryList(t.Context(), "BusinessPartnerMaster", "CardType eq 'S'"); err != nil {
		t.Fatalf("QueryList: %v", err)
	}
}

func TestClientServerErrorIsReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/b1s/v1/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "B1SESSION", Value: "s"})
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/b1s/v1/SQLQueries('ItemMaster')/List", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"query blew up"}}`))
	})

	client := newTestServiceLayer(t, mux)
	if _, err := client.QueryList(t.Context(), "ItemMaster", ""); err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestClientRequiresConfiguration(t *testing.T) {
	t.Setenv("SAP_BASE_URL", "")
	t.Setenv("SAP_COMPANY_DB", "")
	t.Setenv("SAP_USERNAME", "")
	t.Setenv("SAP_PASSWORD", "")
	if _, err := newServiceLayerClient(); err == nil {
		t.Fatal("expected configuration error")
	}
}
