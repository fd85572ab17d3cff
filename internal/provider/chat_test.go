package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testRegistry(env map[string]string) *Registry {
	return NewRegistry(Options{
		LookupEnv: func(k string) string { return env[k] },
	})
}

func chatHandle(baseURL string) Handle {
	temp := 0.7
	return Handle{
		Name:          "openrouter_primary",
		Type:          TypeChat,
		Model:         "deepseek/deepseek-r1",
		BaseURL:       baseURL,
		Temperature:   &temp,
		CredentialEnv: "TEST_KEY",
	}
}

// TestChat_Success verifies request shape and content extraction.
func TestChat_Success(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("Invalid request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  API Working \n"}}]}`))
	}))
	defer srv.Close()

	r := testRegistry(map[string]string{"TEST_KEY": "secret"})
	out, err := r.Invoke(context.Background(), chatHandle(srv.URL), Prompt{System: "be brief", User: "hello"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "API Working" {
		t.Errorf("Expected trimmed content, got %q", out)
	}
	if got.Model != "deepseek/deepseek-r1" {
		t.Errorf("Expected model in request, got %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" {
		t.Errorf("Unexpected messages: %+v", got.Messages)
	}
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", got.Temperature)
	}
}

// TestChat_StatusErrorCarriesCodeAndMessage verifies error text keeps the
// numeric status and the provider message.
func TestChat_StatusErrorCarriesCodeAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient credits","code":402}}`))
	}))
	defer srv.Close()

	r := testRegistry(map[string]string{"TEST_KEY": "secret"})
	_, err := r.Invoke(context.Background(), chatHandle(srv.URL), Prompt{User: "hi"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %T: %v", err, err)
	}
	if se.Status != http.StatusPaymentRequired {
		t.Errorf("Expected status 402, got %d", se.Status)
	}
	msg := err.Error()
	if !strings.Contains(msg, "402") || !strings.Contains(msg, "Insufficient credits") {
		t.Errorf("Expected code and message in error, got %q", msg)
	}
}

// TestChat_ErrorInsideOKBody verifies errors embedded in a 200 response.
func TestChat_ErrorInsideOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"Provider returned error: overloaded","code":503}}`))
	}))
	defer srv.Close()

	r := testRegistry(map[string]string{"TEST_KEY": "secret"})
	_, err := r.Invoke(context.Background(), chatHandle(srv.URL), Prompt{User: "hi"})

	var se *StatusError
	if !errors.As(err, &se) || se.Status != 503 {
		t.Fatalf("Expected StatusError 503, got %v", err)
	}
}

// TestChat_EmptyContent verifies an empty choice is an error.
func TestChat_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	r := testRegistry(map[string]string{"TEST_KEY": "secret"})
	_, err := r.Invoke(context.Background(), chatHandle(srv.URL), Prompt{User: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Expected ErrEmptyResponse, got %v", err)
	}
}

// TestChat_MissingCredential verifies an unset key fails as unauthorized
// without any network call.
func TestChat_MissingCredential(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := testRegistry(nil)
	_, err := r.Invoke(context.Background(), chatHandle(srv.URL), Prompt{User: "hi"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("Expected 401 error, got %v", err)
	}
	if called {
		t.Error("Expected no request without a credential")
	}
}
