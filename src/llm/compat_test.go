package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompatServer(t *testing.T, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		content, _ := json.Marshal(reply)
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompatBackendGenerate(t *testing.T) {
	var seen chatRequest
	reply := "```json\n{\"thought\":\"add about\",\"files\":[{\"operation\":\"CREATE\",\"path\":\"about.html\",\"content\":\"<h1>About</h1>\"}]}\n```"
	srv := newCompatServer(t, reply, &seen)

	b := NewCompatBackend(project.CustomModel{ID: "c1", Name: "Local", APIKey: "sk-test", BaseURL: srv.URL, ModelID: "step-1"})
	cs, err := b.Generate(context.Background(), GenerateRequest{
		Prompt: "Add an about page",
		Files:  project.NewFileSet(project.NewFile("index.html", "<h1>Home</h1>")),
		Stack:  project.StackVanilla,
		Attachments: []project.Attachment{
			{Kind: project.AttachmentText, Name: "notes.txt", Data: "brand is blue"},
		},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(cs.Operations) != 1 || cs.Operations[0].Path != "about.html" {
		t.Fatalf("unexpected change-set: %+v", cs)
	}
	if seen.Model != "step-1" || seen.Temperature != 0.7 {
		t.Fatalf("unexpected request: model=%q temperature=%v", seen.Model, seen.Temperature)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", seen.Messages)
	}
	user := seen.Messages[1].Content
	for _, want := range []string{"Current Stack: vanilla", "Path: index.html", "User Goal: Add an about page", "Attached File (notes.txt):\nbrand is blue"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestCompatBackendPlanAndPing(t *testing.T) {
	srv := newCompatServer(t, `Files: ["style.css", "index.html"]`, nil)
	b := NewCompatBackend(project.CustomModel{ID: "c1", APIKey: "sk-test", BaseURL: srv.URL + "/v1", ModelID: "m"})

	paths, err := b.Plan(context.Background(), PlanRequest{Prompt: "blue button", Paths: []string{"index.html", "style.css"}})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(paths) != 2 || paths[0] != "style.css" {
		t.Fatalf("unexpected plan %v", paths)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if b.Name() != "m" {
		t.Fatalf("Name() = %q", b.Name())
	}
}

func TestCompatBackendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	b := NewCompatBackend(project.CustomModel{ID: "c1", APIKey: "bad", BaseURL: srv.URL, ModelID: "m"})
	_, err := b.Generate(context.Background(), GenerateRequest{Prompt: "x", Stack: project.StackVanilla})
	if err == nil || !strings.Contains(err.Error(), "Custom API Error: invalid api key") {
		t.Fatalf("unexpected error: %v", err)
	}
}
