package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBasicAuthMiddleware(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects requests without credentials", func(t *testing.T) {
		t.Parallel()

		handler := BasicAuth("admin", string(hash), testLogger())(okHandler)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
		if recorder.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("expected a WWW-Authenticate challenge")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()

		handler := BasicAuth("admin", string(hash), testLogger())(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/plan", nil)
		req.SetBasicAuth("admin", "wrong")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("rejects a wrong username", func(t *testing.T) {
		t.Parallel()

		handler := BasicAuth("admin", string(hash), testLogger())(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/plan", nil)
		req.SetBasicAuth("intruder", "s3cret")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("passes valid credentials through", func(t *testing.T) {
		t.Parallel()

		handler := BasicAuth("admin", string(hash), testLogger())(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/plan", nil)
		req.SetBasicAuth("admin", "s3cret")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
	})

	t.Run("empty hash disables authentication", func(t *testing.T) {
		t.Parallel()

		handler := BasicAuth("admin", "", testLogger())(okHandler)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
	})
}

func TestRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	var sawLogger bool
	handler := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if !sawLogger {
		t.Fatal("expected the request logger to be attached to the context")
	}
}
