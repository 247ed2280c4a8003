package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

const maxPerPage = 100

// searchFilter reads the police API's own query vocabulary.
func searchFilter(r *http.Request) (abitus.SearchFilter, string) {
	q := r.URL.Query()
	f := abitus.SearchFilter{Name: strings.TrimSpace(q.Get("nome"))}

	for _, p := range []struct {
		key string
		dst **int
	}{{"faixaIdadeInicial", &f.MinAge}, {"faixaIdadeFinal", &f.MaxAge}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, p.key + " must be a non-negative integer"
		}
		*p.dst = &n
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return f, "faixaIdadeInicial must not exceed faixaIdadeFinal"
	}

	switch sex := strings.ToUpper(q.Get("sexo")); sex {
	case "", abitus.SexMale, abitus.SexFemale:
		f.Sex = sex
	default:
		return f, "sexo must be MASCULINO or FEMININO"
	}

	status, err := casemap.ParseStatus(q.Get("status"))
	if err != nil {
		return f, err.Error()
	}
	f.Status = status.APIValue()

	if raw := q.Get("pagina"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, "pagina must be a non-negative integer"
		}
		f.Page = n
	}
	if raw := q.Get("porPagina"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPerPage {
			return f, "porPagina must be between 1 and 100"
		}
		f.PerPage = n
	}
	return f, ""
}

func (s *Server) handleSearchPersons(w http.ResponseWriter, r *http.Request) {
	f, problem := searchFilter(r)
	if problem != "" {
		writeErrorMessage(w, http.StatusBadRequest, problem)
		return
	}
	page, err := s.deps.Client.SearchPersons(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	n := 4
	if raw := r.URL.Query().Get("registros"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPerPage {
			writeErrorMessage(w, http.StatusBadRequest, "registros must be between 1 and 100")
			return
		}
		n = v
	}
	persons, err := s.deps.Client.DynamicPersons(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, persons)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	p, err := s.deps.Client.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Basic(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAdvancedStats(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Stats.Advanced(r.Context(), s.nowFunc())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
