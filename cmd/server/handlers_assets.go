package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cubo-casa/orcamentos/internal/assets"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// multipartOverhead leaves room for the form fields around the file.
const multipartOverhead = 1 << 20

func (s *server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.assets.List(r.Context(), store.AssetFilter{
		Categories: splitValues(q["category"]),
		Tags:       splitValues(q["tag"]),
		Search:     strings.TrimSpace(q.Get("q")),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []store.Asset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	limit := s.assets.MaxBytes() + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, assets.ErrTooLarge)
			return
		}
		s.fail(w, r, invalidf("formulário inválido: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, invalidf("campo file é obrigatório"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	form := r.MultipartForm.Value
	res, err := s.assets.Upload(r.Context(), assets.UploadInput{
		Filename:   header.Filename,
		Data:       data,
		Categories: splitValues(form["categories"]),
		Tags:       splitValues(form["tags"]),
		Copyright:  strings.TrimSpace(r.FormValue("copyright_info")),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.assets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var meta assets.Metadata
	if err := decodeJSON(w, r, &meta); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.assets.Update(r.Context(), chi.URLParam(r, "id"), meta)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := s.assets.ChangeLogs(r.Context(), store.EntityAsset, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

func (s *server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.assets.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.assets.CreateCategory(r.Context(), req.Name, req.ParentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mappingRequest struct {
	AssetID  string `json:"asset_id"`
	Pattern  string `json:"environment_name_pattern"`
	Priority int    `json:"priority"`
}

func (s *server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.assets.ListMappings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if mappings == nil {
		mappings = []store.Mapping{}
	}
	writeJSON(w, http.StatusOK, mappings)
}

func (s *server) handleCreateMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.assets.CreateMapping(r.Context(), req.AssetID, req.Pattern, req.Priority)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.DeleteMapping(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitValues accepts both repeated fields and comma separated lists.
func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
