package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProvisionRoom(t *testing.T) {
	var roomName string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/rooms":
			var req struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			roomName = req.Name
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "room-42"})
		case "/rooms/room-42/codes":
			var req struct {
				Role string `json:"role"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Role != "guest" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "ABC123"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", 2*time.Second)

	code, err := client.ProvisionRoom(context.Background(), "patient-doctor-1234")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if code != "ABC123" {
		t.Errorf("expected join code ABC123, got %q", code)
	}
	if roomName != "patient-doctor-1234" {
		t.Errorf("room not scoped by seed: %q", roomName)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("missing auth header: %q", gotAuth)
	}
}

func TestProvisionRoomCreateFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", 2*time.Second)

	_, err := client.ProvisionRoom(context.Background(), "seed")
	if !errors.Is(err, ErrRoomCreateFailed) {
		t.Errorf("expected ErrRoomCreateFailed, got %v", err)
	}
}

func TestProvisionRoomCodeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rooms" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "room-1"})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", 2*time.Second)

	_, err := client.ProvisionRoom(context.Background(), "seed")
	if !errors.Is(err, ErrCodeIssueFailed) {
		t.Errorf("expected ErrCodeIssueFailed, got %v", err)
	}
}

func TestProvisionRoomEmptyCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rooms" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "room-1"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"code": ""})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", 2*time.Second)

	_, err := client.ProvisionRoom(context.Background(), "seed")
	if !errors.Is(err, ErrEmptyJoinCode) {
		t.Errorf("expected ErrEmptyJoinCode, got %v", err)
	}
}
