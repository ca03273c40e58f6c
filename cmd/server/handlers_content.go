package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/store"
)

func (s *server) handleUpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	var patch store.EnvironmentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	env, err := s.budgets.UpdateEnvironment(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.DeleteEnvironment(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var in budget.ItemInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if err := checkItemNumbers(in.Quantity, in.PurchasePrice, nil); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.budgets.AddItem(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch budget.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := checkItemNumbers(patch.Quantity, patch.PurchasePrice, patch.SalePrice); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.budgets.UpdateItem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func checkItemNumbers(quantity, purchase, sale *float64) error {
	if quantity != nil {
		if err := checkQuantity(*quantity, "quantidade"); err != nil {
			return err
		}
	}
	if purchase != nil {
		if err := checkNonNegative(*purchase, "preço de compra"); err != nil {
			return err
		}
	}
	if sale != nil {
		if err := checkNonNegative(*sale, "preço de venda"); err != nil {
			return err
		}
	}
	return nil
}
