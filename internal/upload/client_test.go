package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"assetforge/internal/domain"
	"assetforge/internal/infra/credentials"
)

var testCreds = credentials.Static{
	credentials.KeyUploadAPIKey: "key-123",
	credentials.KeyUploadSecret: "secret-xyz",
}

func TestUploadSendsSignedForm(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"generated/a-red-bicycle-ab12cd34","secure_url":"https://store.example.com/a-red-bicycle.png","format":"png","bytes":2048,"width":512,"height":512}`))
	}))
	defer server.Close()

	client := NewClient(Options{UploadURL: server.URL}, testCreds)
	result, err := client.Upload(context.Background(), Request{
		Data:     make([]byte, 128),
		PublicID: "a-red-bicycle-ab12cd34",
		Folder:   "generated",
		Format:   "png",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.SecureURL != "https://store.example.com/a-red-bicycle.png" {
		t.Fatalf("secure url = %q", result.SecureURL)
	}
	if result.ByteSize != 2048 || result.Width != 512 {
		t.Fatalf("result metadata not parsed: %+v", result)
	}

	if form["api_key"] != "key-123" {
		t.Fatalf("api_key = %q", form["api_key"])
	}
	if _, leaked := form["api_secret"]; leaked {
		t.Fatalf("shared secret must never be transmitted")
	}
	if form["overwrite"] != "true" {
		t.Fatalf("overwrite = %q, want true", form["overwrite"])
	}
	signed := map[string]string{
		"timestamp": form["timestamp"],
		"public_id": form["public_id"],
		"folder":    form["folder"],
		"format":    form["format"],
		"overwrite": form["overwrite"],
	}
	if form["signature"] != Signature(signed, "secret-xyz") {
		t.Fatalf("signature does not verify against the sent parameters")
	}
}

func TestUploadAcceptsRemoteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("file"); got != "https://cdn.example.com/tmp/asset.png" {
			t.Errorf("file = %q, want pass-through url", got)
		}
		_, _ = w.Write([]byte(`{"public_id":"p","secure_url":"https://store.example.com/p.png","format":"png","bytes":1}`))
	}))
	defer server.Close()

	client := NewClient(Options{UploadURL: server.URL}, testCreds)
	if _, err := client.Upload(context.Background(), Request{URL: "https://cdn.example.com/tmp/asset.png", PublicID: "p", Format: "png"}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadClassifiesUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Options{UploadURL: server.URL}, testCreds)
	_, err := client.Upload(context.Background(), Request{Data: make([]byte, 128), PublicID: "p", Format: "png"})
	if !domain.IsKind(err, domain.ErrMissingCredentials) {
		t.Fatalf("err = %v, want missing_credentials", err)
	}
}

func TestUploadFailureCarriesTruncatedBody(t *testing.T) {
	huge := make([]byte, 4096)
	for i := range huge {
		huge[i] = 'x'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(huge)
	}))
	defer server.Close()

	client := NewClient(Options{UploadURL: server.URL}, testCreds)
	_, err := client.Upload(context.Background(), Request{Data: make([]byte, 128), PublicID: "p", Format: "png"})
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want upload_failed", err)
	}
	if len(err.Error()) > maxDiagnosticBody+128 {
		t.Fatalf("diagnostic body was not truncated: %d chars", len(err.Error()))
	}
}

func TestUploadMissingCredentialsLocally(t *testing.T) {
	client := NewClient(Options{UploadURL: "http://127.0.0.1:0"}, credentials.Static{})
	_, err := client.Upload(context.Background(), Request{Data: make([]byte, 128), PublicID: "p"})
	if !domain.IsKind(err, domain.ErrMissingCredentials) {
		t.Fatalf("err = %v, want missing_credentials", err)
	}
}
