package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloomcare/checkin/internal/models"
)

func TestSubmitResponsePostsJSON(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL)
	err := client.SubmitResponse(context.Background(), "u1", models.QuestionnaireResponse{
		QuestionID: "home_safety",
		DomainID:   "safety",
		Response:   "yes",
		Flag:       "safety_risk",
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("SubmitResponse() error = %v", err)
	}
	if got.UserID != "u1" || got.DomainID != "safety" || got.QuestionID != "home_safety" {
		t.Errorf("payload = %+v", got)
	}
	if got.Flag != "safety_risk" || !got.Timestamp.Equal(created) {
		t.Errorf("payload flag/timestamp = %q/%v", got.Flag, got.Timestamp)
	}
}

func TestSubmitResponseRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.SubmitResponse(context.Background(), "u1", models.QuestionnaireResponse{QuestionID: "q1"})
	if err == nil {
		t.Fatal("SubmitResponse() = nil error on 422 response")
	}
}

func TestSubmitResponseNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // immediately unreachable

	client := NewClient(srv.URL)
	err := client.SubmitResponse(context.Background(), "u1", models.QuestionnaireResponse{QuestionID: "q1"})
	if err == nil {
		t.Fatal("SubmitResponse() = nil error on unreachable endpoint")
	}
}

func TestSubmitResponseHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL)
	err := client.SubmitResponse(ctx, "u1", models.QuestionnaireResponse{QuestionID: "q1"})
	if err == nil {
		t.Fatal("SubmitResponse() = nil error on cancelled context")
	}
}
