package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/store"
)

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.budgets.Settings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings store.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.budgets.SaveSettings(r.Context(), settings)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleGetPageLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := store.GetPageLayout(r.Context(), s.db)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (s *server) handleSavePageLayout(w http.ResponseWriter, r *http.Request) {
	var layout store.PageLayout
	if err := decodeJSON(w, r, &layout); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(layout.CoverTitle) == "" {
		s.fail(w, r, invalidf("título da capa é obrigatório"))
		return
	}
	if err := store.SavePageLayout(r.Context(), s.db, layout); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleGetPageLayout(w, r)
}

func (s *server) handleGetTemplateSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.assets.TemplateSettings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type assetRef struct {
	AssetID string `json:"asset_id"`
}

func (s *server) handleSetMainCover(w http.ResponseWriter, r *http.Request) {
	var ref assetRef
	if err := decodeJSON(w, r, &ref); err != nil {
		s.fail(w, r, err)
		return
	}
	settings, err := s.assets.SetMainCover(r.Context(), ref.AssetID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleSetDefaultAsset(w http.ResponseWriter, r *http.Request) {
	var ref assetRef
	if err := decodeJSON(w, r, &ref); err != nil {
		s.fail(w, r, err)
		return
	}
	settings, err := s.assets.SetDefault(r.Context(), ref.AssetID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type templateRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DefaultImageURL string `json:"default_image_url"`
}

func (req templateRequest) template(id string) (store.EnvironmentTemplate, error) {
	t := store.EnvironmentTemplate{
		ID:              id,
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		DefaultImageURL: strings.TrimSpace(req.DefaultImageURL),
	}
	if t.Name == "" {
		return t, invalidf("nome do modelo é obrigatório")
	}
	return t, nil
}

func (s *server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := store.ListTemplates(r.Context(), s.db)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := req.template(store.NewID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := store.InsertTemplate(r.Context(), s.db, t); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := store.GetTemplate(r.Context(), s.db, t.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := store.GetTemplate(r.Context(), s.db, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := req.template(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := store.UpdateTemplate(r.Context(), s.db, t); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleGetTemplate(w, r)
}

func (s *server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteTemplate(r.Context(), s.db, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
