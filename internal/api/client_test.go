package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000", "secret123")

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.BaseURL() != "http://localhost:5000" {
		t.Errorf("expected baseURL=http://localhost:5000, got %s", c.BaseURL())
	}
	if c.secret != "secret123" {
		t.Errorf("expected secret=secret123, got %s", c.secret)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	if c.BaseURL() != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "")
	if err := c.Healthcheck(); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	if err := c.Healthcheck(); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "")
	if err := c.Healthcheck(); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestUploadBackup_Success(t *testing.T) {
	fields := map[string]string{}
	var content []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/backups" {
			t.Errorf("expected path /api/v1/backups, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, k := range []string{"secret", "filename", "serverId", "version", "takenAt"} {
			fields[k] = r.FormValue(k)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("failed to get file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "hustle_backup_20260101.db")
	if err := os.WriteFile(path, []byte("sqlite bytes"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	c := New(server.URL, "mysecret")
	taken := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	err := c.UploadBackup(path, BackupMetadata{ServerID: "node-1", Version: "1.2.3", TakenAt: taken})
	if err != nil {
		t.Fatalf("UploadBackup failed: %v", err)
	}

	want := map[string]string{
		"secret":   "mysecret",
		"filename": "hustle_backup_20260101.db",
		"serverId": "node-1",
		"version":  "1.2.3",
		"takenAt":  "2026-01-01T12:00:00Z",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("expected %s=%s, got %s", k, v, fields[k])
		}
	}
	if string(content) != "sqlite bytes" {
		t.Errorf("expected file content 'sqlite bytes', got '%s'", string(content))
	}
}

func TestUploadBackup_FileNotFound(t *testing.T) {
	c := New("http://localhost:5000", "secret")
	if err := c.UploadBackup("/nonexistent/backup.db", BackupMetadata{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUploadBackup_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "backup.db")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	c := New(server.URL, "wrong-secret")
	if err := c.UploadBackup(path, BackupMetadata{}); err == nil {
		t.Error("expected error for 403 response")
	}
}
