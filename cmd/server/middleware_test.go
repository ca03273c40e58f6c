package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/logger"
	"github.com/cubo-casa/orcamentos/internal/metrics"
	"github.com/cubo-casa/orcamentos/internal/testhelpers"
)

func TestRecovererReturnsJSON500(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewWithWriter("prod", &logs)

	r := chi.NewRouter()
	r.Use(recoverer(log))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	expectStatus(t, rr, http.StatusInternalServerError)
	testhelpers.AssertContains(t, rr.Body.String(), `"error":"erro interno"`)
	testhelpers.AssertContains(t, logs.String(), "panic recovered", "kaboom")
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(requestLogger(logger.NewWithWriter("prod", &logs), m))
	r.Get("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items/abc", nil))
	expectStatus(t, rr, http.StatusTeapot)
	testhelpers.AssertContains(t, logs.String(), `"route":"/api/items/{id}"`, `"status":418`)

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	testhelpers.AssertContains(t, out.Body.String(), `route="/api/items/{id}",status="418"`)
}

func TestRecoveredPanicIsLoggedAndCounted(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New()

	r := chi.NewRouter()
	useMiddleware(r, logger.NewWithWriter("prod", &logs), m)
	r.Get("/api/budgets/{id}/summary", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/budgets/b1/summary", nil))

	expectStatus(t, rr, http.StatusInternalServerError)
	testhelpers.AssertContains(t, logs.String(), "panic recovered", `"msg":"HTTP request"`, `"status":500`)

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	testhelpers.AssertContains(t, out.Body.String(), `route="/api/budgets/{id}/summary",status="500"`)
}
