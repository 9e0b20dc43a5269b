package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/menta2k/room-advisor/pkg/client"
)

func TestParseDetections(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		labels []string
	}{
		{"bare array", `[{"label":"sofa","score":0.9}]`, []string{"sofa"}},
		{"fenced", "```json\n[{\"label\":\"lamp\",\"score\":0.8}]\n```", []string{"lamp"}},
		{"prose around", `Here is what I found: [{"label":"chair","score":0.7},{"label":"rug","score":0.6}] hope it helps`, []string{"chair", "rug"}},
		{"trailing comma", `[{"label":"bed","score":0.9,},]`, []string{"bed"}},
		{"block comment", `[/* main piece */ {"label":"table","score":0.75}]`, []string{"table"}},
		{"wrapped", `{"objects":[{"label":"mirror","score":0.6}]}`, []string{"mirror"}},
		{"empty", `[]`, []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			detections, err := parseDetections(test.raw)
			if err != nil {
				t.Fatalf("parseDetections failed: %v", err)
			}
			if detections == nil {
				t.Fatal("Expected non-nil detections")
			}
			if len(detections) != len(test.labels) {
				t.Fatalf("Expected %d detections, got %d", len(test.labels), len(detections))
			}
			for i, label := range test.labels {
				if detections[i].Label != label {
					t.Errorf("Expected label %s at %d, got %s", label, i, detections[i].Label)
				}
			}
		})
	}
}

func TestParseDetectionsInvalid(t *testing.T) {
	for _, raw := range []string{"", "I see a sofa and a lamp.", `{"label":"sofa"}`, `[{"label": 3}]`} {
		if _, err := parseDetections(raw); !errors.Is(err, client.ErrInvalidFormat) {
			t.Errorf("%q: expected ErrInvalidFormat, got %v", raw, err)
		}
	}
}

func TestPromptListsFurniture(t *testing.T) {
	p := Prompt()
	for _, label := range []string{"sofa", "lamp", "rug"} {
		if !strings.Contains(p, label) {
			t.Errorf("Expected prompt to mention %s", label)
		}
	}
}

func TestDetectAgainstServer(t *testing.T) {
	var gotModel string
	var gotImages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Images []string `json:"images"`
			} `json:"messages"`
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &req)
		gotModel = req.Model
		if len(req.Messages) > 0 {
			gotImages = len(req.Messages[0].Images)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"minicpm-v","message":{"role":"assistant","content":"[{\"label\":\"sofa\",\"score\":0.88}]"},"done":true}`)
	}))
	defer srv.Close()

	c := NewClient()
	detections, err := c.Detect(context.Background(), client.Endpoint{Name: "minicpm-v", URL: srv.URL + "/api/chat"}, []byte("image"), "image/png")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if gotModel != "minicpm-v" {
		t.Errorf("Expected model minicpm-v, got %s", gotModel)
	}
	if gotImages != 1 {
		t.Errorf("Expected one image in request, got %d", gotImages)
	}
	if len(detections) != 1 || detections[0].Label != "sofa" {
		t.Errorf("Unexpected detections %+v", detections)
	}
}

func TestDetectMapsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"model runner crashed"}`)
	}))
	defer srv.Close()

	c := NewClient()
	_, err := c.Detect(context.Background(), client.Endpoint{URL: srv.URL}, []byte("image"), "image/png")

	var se *client.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", se.StatusCode)
	}
}

func TestDetectInvalidURL(t *testing.T) {
	c := NewClient()
	if _, err := c.Detect(context.Background(), client.Endpoint{URL: "not a url"}, nil, ""); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestRequiresCredential(t *testing.T) {
	if NewClient().RequiresCredential() {
		t.Error("Local transport must not require a credential")
	}
}
