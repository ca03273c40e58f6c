package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/proposal"
	"github.com/cubo-casa/orcamentos/internal/store"
)

func (s *server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.ListBudgets(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []store.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var client store.Client
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &client); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	b, err := s.budgets.CreateBudget(r.Context(), client)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	detail, err := s.budgets.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var client store.Client
	if err := decodeJSON(w, r, &client); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.budgets.UpdateClient(r.Context(), chi.URLParam(r, "id"), client)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.budgets.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) handleUpdateRules(w http.ResponseWriter, r *http.Request) {
	var rules pricing.Rules
	if err := decodeJSON(w, r, &rules); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.budgets.UpdateRules(r.Context(), chi.URLParam(r, "id"), rules)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.budgets.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.budgets.Recalculate(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.budgets.GetBudget(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type addEnvironmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TemplateID  string `json:"template_id"`
}

func (s *server) handleAddEnvironment(w http.ResponseWriter, r *http.Request) {
	var req addEnvironmentRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	budgetID := chi.URLParam(r, "id")
	var (
		env store.Environment
		err error
	)
	if req.TemplateID != "" {
		env, err = s.budgets.AddEnvironmentFromTemplate(r.Context(), budgetID, req.TemplateID)
	} else {
		env, err = s.budgets.AddEnvironment(r.Context(), budgetID, budget.EnvironmentInput{
			Name:        req.Name,
			Description: req.Description,
		})
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, env)
}

type coversResponse struct {
	Applied int `json:"applied"`
}

func (s *server) handleApplyCovers(w http.ResponseWriter, r *http.Request) {
	n, err := s.covers.Apply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coversResponse{Applied: n})
}

func (s *server) handleProposalHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.proposals.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := proposal.RenderHTML(&buf, doc); err != nil {
		s.fail(w, r, fmt.Errorf("render proposal html: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *server) handleProposalPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := s.proposals.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := proposal.RenderPDF(doc)
	if err != nil {
		s.fail(w, r, fmt.Errorf("render proposal pdf: %w", err))
		return
	}
	writeAttachment(w, "application/pdf", fmt.Sprintf("proposta-%d.pdf", doc.ProtocolNumber), data)
}

func (s *server) handleProposalXLSX(w http.ResponseWriter, r *http.Request) {
	doc, err := s.proposals.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	internal := r.URL.Query().Get("internal") == "1"
	data, err := proposal.RenderXLSX(doc, internal)
	if err != nil {
		s.fail(w, r, fmt.Errorf("render proposal xlsx: %w", err))
		return
	}

	name := fmt.Sprintf("proposta-%d.xlsx", doc.ProtocolNumber)
	if internal {
		name = fmt.Sprintf("custos-%d.xlsx", doc.ProtocolNumber)
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, data)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
