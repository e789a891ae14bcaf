package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/predict"
)

type apiError struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// jsonFields adapts a decoded JSON object to domain.FieldGetter so JSON and
// form submissions share one parser. Strings are unquoted; other values are
// passed through as their JSON text.
type jsonFields map[string]json.RawMessage

func (f jsonFields) Field(name string) (string, bool) {
	raw, ok := f[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// handleAPIPredict accepts either a form or a JSON object with the same
// field names and returns the recorded prediction.
func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	fields, err := requestFields(r)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, apiError{Error: err.Error(), Stage: string(predict.StageInput)})
		return
	}

	rec, err := s.svc.PredictFields(r.Context(), fields)
	if err != nil {
		sharedobs.WriteJSON(w, statusFor(err), apiError{Error: err.Error(), Stage: string(predict.StageOf(err))})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, rec)
}

func requestFields(r *http.Request) (domain.FieldGetter, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var f jsonFields
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			return nil, fmt.Errorf("decode request body: %w", err)
		}
		return f, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return domain.FormFields(r.PostForm), nil
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.History(r.Context())
	if err != nil {
		s.logger.Error("list history failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	if recs == nil {
		recs = []domain.PredictionRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, recs)
}
