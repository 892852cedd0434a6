package script

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"google.golang.org/api/option"
	scriptapi "google.golang.org/api/script/v1"
)

// newTestRunner builds a Runner against a fake Apps Script backend
func newTestRunner(t *testing.T, handler http.HandlerFunc) *Runner {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := scriptapi.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Failed to create script service: %v", err)
	}

	settings, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	settings.SetScriptID("test-script-id")

	return NewRunner(svc, settings)
}

func TestCallReturnsResult(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"done":true,"response":{"result":{"count":3}}}`))
	})

	result, err := runner.Call(context.Background(), "tally", nil, true)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if m["count"] != float64(3) {
		t.Errorf("Expected count 3, got %v", m["count"])
	}
}

func TestCallEmptyResultYieldsEmptyMap(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"done":true,"response":{}}`))
	})

	result, err := runner.Call(context.Background(), "noop", nil, false)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if len(m) != 0 {
		t.Errorf("Expected empty map, got %v", m)
	}
}

func TestCallScriptErrorInvokesHandlerOnce(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"done": true,
			"error": {
				"code": 3,
				"message": "Script failed",
				"details": [{
					"errorMessage": "boom",
					"errorType": "TypeError",
					"scriptStackTraceElements": [
						{"function": "main", "lineNumber": 12},
						{"function": "helper", "lineNumber": 40}
					]
				}]
			}
		}`))
	})

	invocations := 0
	var received *ScriptError
	runner.WithErrorHandler(func(scriptErr *ScriptError) interface{} {
		invocations++
		received = scriptErr
		return "handled"
	})

	result, err := runner.Call(context.Background(), "explode", nil, true)
	if err != nil {
		t.Fatalf("Expected script error to be non-fatal, got %v", err)
	}
	if result != "handled" {
		t.Errorf("Expected handler value 'handled', got %v", result)
	}
	if invocations != 1 {
		t.Errorf("Expected handler invoked exactly once, got %d", invocations)
	}
	if received == nil {
		t.Fatal("Handler never received the error")
	}
	if received.Message != "boom" {
		t.Errorf("Expected message 'boom', got %q", received.Message)
	}
	if received.Type != "TypeError" {
		t.Errorf("Expected type 'TypeError', got %q", received.Type)
	}
	if len(received.Frames) != 2 || received.Frames[0].Function != "main" || received.Frames[0].Line != 12 {
		t.Errorf("Unexpected stack frames: %+v", received.Frames)
	}
}

func TestCallDefaultHandlerReturnsSentinel(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"done":true,"error":{"code":3,"message":"Script failed"}}`))
	})

	result, err := runner.Call(context.Background(), "explode", nil, true)
	if err != nil {
		t.Fatalf("Expected script error to be non-fatal, got %v", err)
	}
	if result != "Error" {
		t.Errorf("Expected sentinel \"Error\", got %v", result)
	}
}

func TestCallTransportErrorIsFatal(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	invocations := 0
	runner.WithErrorHandler(func(*ScriptError) interface{} {
		invocations++
		return nil
	})

	if _, err := runner.Call(context.Background(), "anything", nil, false); err == nil {
		t.Fatal("Expected transport error to be returned")
	}
	if invocations != 0 {
		t.Errorf("Handler must not run on transport errors, ran %d times", invocations)
	}
}

func TestDecodeScriptErrorNoDetails(t *testing.T) {
	scriptErr := decodeScriptError(&scriptapi.Status{Code: 3, Message: "Script failed"})
	if scriptErr.Message != "Script failed" {
		t.Errorf("Expected status message fallback, got %q", scriptErr.Message)
	}
	if len(scriptErr.Frames) != 0 {
		t.Errorf("Expected no frames, got %+v", scriptErr.Frames)
	}
}
