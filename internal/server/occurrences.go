package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pjc-mt/casemap/pkg/abitus"
)

func occurrenceID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ocoID"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := s.deps.Client.OccurrenceReasons(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reasons)
}

func (s *Server) handleOccurrenceInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := occurrenceID(r)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "occurrence id must be a positive integer")
		return
	}
	infos, err := s.deps.Client.OccurrenceInfo(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleAddOccurrenceInfo accepts a multipart form with the fields
// informacao, descricao and data plus any number of "files" parts.
func (s *Server) handleAddOccurrenceInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := occurrenceID(r)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "occurrence id must be a positive integer")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	tip := abitus.Tip{
		OccurrenceID: id,
		Info:         strings.TrimSpace(r.FormValue("informacao")),
		Description:  strings.TrimSpace(r.FormValue("descricao")),
		Date:         strings.TrimSpace(r.FormValue("data")),
	}
	if tip.Info == "" {
		writeErrorMessage(w, http.StatusBadRequest, "informacao is required")
		return
	}
	if tip.Date != "" {
		if _, err := abitus.ParseDate(tip.Date); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "data must be a date (YYYY-MM-DD)")
			return
		}
	}

	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "read attachment "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "read attachment "+fh.Filename)
			return
		}
		tip.Files = append(tip.Files, abitus.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	info, err := s.deps.Client.AddOccurrenceInfo(r.Context(), tip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}
