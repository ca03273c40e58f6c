package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/cubo-casa/orcamentos/internal/assets"
	"github.com/cubo-casa/orcamentos/internal/blob"
	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/store"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// badRequest marks an error whose message is safe to return to the client.
type badRequest struct {
	message string
}

func (e badRequest) Error() string {
	return e.message
}

func invalidf(format string, args ...any) error {
	return badRequest{message: fmt.Sprintf(format, args...)}
}

// fail maps service errors to status codes. Unexpected errors are logged
// and hidden from the client.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		writeError(w, http.StatusBadRequest, br.message)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "registro não encontrado")
	case errors.Is(err, budget.ErrInvalidInput),
		errors.Is(err, assets.ErrInvalidInput),
		errors.Is(err, assets.ErrEmpty),
		errors.Is(err, assets.ErrTooLarge),
		errors.Is(err, assets.ErrUnsupportedType),
		errors.Is(err, blob.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return invalidf("corpo da requisição vazio")
		}
		return invalidf("JSON inválido: %v", err)
	}
	return nil
}

func checkNonNegative(v float64, field string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidf("%s deve ser numérico", field)
	}
	if v < 0 {
		return invalidf("%s deve ser maior ou igual a 0", field)
	}
	return nil
}

func checkQuantity(v float64, field string) error {
	if err := checkNonNegative(v, field); err != nil {
		return err
	}
	if v < 0.01 {
		return invalidf("%s deve ser no mínimo 0,01", field)
	}
	return nil
}
