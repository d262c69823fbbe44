//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/fluentia/exam-engine/internal/auth"
)

// These tests exercise a running engine plus its collaborators (catalog,
// scoring backend, Redis). Point EXAM_ID at an exam the catalog serves.
const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultSecret  = "change-this-to-a-secure-random-string"
)

var (
	baseURL   string
	jwtSecret string
	examID    string
	token     string
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")

	baseURL = getenv("BASE_URL", defaultBaseURL)
	jwtSecret = getenv("JWT_SECRET", defaultSecret)
	examID = os.Getenv("EXAM_ID")
	if examID == "" {
		fmt.Println("EXAM_ID is required for e2e tests")
		os.Exit(1)
	}

	var err error
	token, err = signCandidateToken()
	if err != nil {
		fmt.Printf("Token setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func signCandidateToken() (string, error) {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		CandidateID: "e2e-candidate",
		DeviceID:    fmt.Sprintf("e2e-dev-%d", time.Now().UnixNano()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
}

func call(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var envelope map[string]interface{}
	_ = json.Unmarshal(raw, &envelope)
	return resp.StatusCode, envelope
}

func TestReadingAttemptLifecycle(t *testing.T) {
	base := "/attempts/exams/" + examID

	status, _ := call(t, http.MethodPost, base+"/open", map[string]string{"mode": "reading"})
	if status != http.StatusOK {
		t.Fatalf("open: status %d", status)
	}

	status, body := call(t, http.MethodPost, base+"/start", nil)
	if status != http.StatusOK {
		t.Fatalf("start: status %d", status)
	}

	data := body["data"].(map[string]interface{})
	state := data["state"].(map[string]interface{})
	if state["phase"] != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %v", state["phase"])
	}

	// State survives a reload: open again and expect the running phase back.
	status, body = call(t, http.MethodPost, base+"/open", map[string]string{"mode": "reading"})
	if status != http.StatusOK {
		t.Fatalf("reopen: status %d", status)
	}

	status, body = call(t, http.MethodGet, base+"/finish-preview", nil)
	if status != http.StatusOK {
		t.Fatalf("finish-preview: status %d", status)
	}

	status, body = call(t, http.MethodPost, base+"/finish", map[string]bool{"confirm": true})
	if status != http.StatusOK {
		t.Fatalf("finish: status %d (%v)", status, body)
	}
	data = body["data"].(map[string]interface{})
	if data["result_id"] == "" {
		t.Fatal("finish returned no result id")
	}

	// Second finish must be rejected, not re-submitted.
	status, _ = call(t, http.MethodPost, base+"/finish", map[string]bool{"confirm": true})
	if status != http.StatusConflict {
		t.Fatalf("repeat finish: expected 409, got %d", status)
	}
}
