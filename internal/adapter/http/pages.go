package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sort"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/predict"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxFormBytes bounds request bodies on the form and API routes.
const maxFormBytes = 1 << 20

type pages struct {
	tmpl *template.Template
}

func mustParsePages() *pages {
	return &pages{tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

// indexData feeds templates/index.html.
type indexData struct {
	Result     string
	IsError    bool
	History    []domain.PredictionRecord
	LandCovers []string
	SoilTypes  []string
}

func (p *pages) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.History(r.Context())
	if err != nil {
		s.renderIndex(w, http.StatusInternalServerError, indexData{Result: "Error: " + err.Error(), IsError: true})
		return
	}
	s.renderIndex(w, http.StatusOK, indexData{History: recs})
}

// handlePredictForm runs one prediction from the HTML form. Every outcome
// renders the index page; failures show "Error: <message>" as the result.
func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.renderPredictError(w, r, http.StatusBadRequest, err)
		return
	}

	rec, err := s.svc.PredictFields(r.Context(), domain.FormFields(r.PostForm))
	if err != nil {
		s.renderPredictError(w, r, statusFor(err), err)
		return
	}

	recs, err := s.svc.History(r.Context())
	if err != nil {
		s.logger.Error("list history failed", "error", err)
		recs = nil
	}
	s.renderIndex(w, http.StatusOK, indexData{Result: rec.Result, History: recs})
}

func (s *Server) renderPredictError(w http.ResponseWriter, r *http.Request, status int, err error) {
	recs, herr := s.svc.History(r.Context())
	if herr != nil {
		recs = nil
	}
	s.renderIndex(w, status, indexData{Result: "Error: " + err.Error(), IsError: true, History: recs})
}

func (s *Server) renderIndex(w http.ResponseWriter, status int, data indexData) {
	data.LandCovers = categoryNames(domain.LandCoverCodes)
	data.SoilTypes = categoryNames(domain.SoilTypeCodes)
	if err := s.pages.render(w, status, "index.html", data); err != nil {
		s.logger.Error("render index failed", "error", err)
	}
}

func (s *Server) handleStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := s.pages.render(w, http.StatusOK, name, nil); err != nil {
			s.logger.Error("render page failed", "page", name, "error", err)
		}
	}
}

// categoryNames lists table keys in code order.
func categoryNames(table map[string]int) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return table[names[i]] < table[names[j]] })
	return names
}

// statusFor maps a prediction failure to its HTTP status.
func statusFor(err error) int {
	switch predict.StageOf(err) {
	case predict.StageInput, predict.StageCategory:
		return http.StatusBadRequest
	case predict.StageTabular, predict.StageSequence:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
