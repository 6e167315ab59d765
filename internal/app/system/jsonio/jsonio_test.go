package jsonio

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"id":"u1","userType":2}`, false},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"garbage", `{id:`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			doc, err := ReadDocument(httptest.NewRecorder(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadDocument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadBody) {
				t.Errorf("expected ErrBadBody, got %v", err)
			}
			if err == nil && doc.String("id") != "u1" {
				t.Errorf("id = %q, want u1", doc.String("id"))
			}
		})
	}
}

func TestReadDocument_TooLarge(t *testing.T) {
	body := `{"notes":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if _, err := ReadDocument(httptest.NewRecorder(), req); err == nil {
		t.Fatal("expected oversized body to be rejected")
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "id is required")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"error":"id is required"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
