package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"steerage/history"
	"steerage/ml"
	"steerage/predict"
)

const sessionHeader = "X-Session-ID"

type API struct {
	svc    *predict.Service
	hub    *Hub
	logger *zap.Logger
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModel)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/history", a.handleHistory)
	mux.HandleFunc("GET /api/history/export", a.handleExportAll)
	mux.HandleFunc("GET /api/history/select", a.handleSelect)
	mux.HandleFunc("GET /api/history/{id}", a.handleEntry)
	mux.HandleFunc("GET /api/history/{id}/export", a.handleExportEntry)
	mux.HandleFunc("GET /api/ws/history", a.handleHistoryWS)
}

// session resolves the caller's session ID, minting one when the header is
// absent, and echoes it so the client can keep the session alive.
func (a *API) session(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(sessionHeader, id)
	return id
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (a *API) handleModel(w http.ResponseWriter, r *http.Request) {
	clf := a.svc.Classifier()
	if clf == nil {
		http.Error(w, `{"error":"classifier unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, map[string]interface{}{
		"version": clf.Version(),
		"schema":  clf.Schema(),
	})
}

type predictRequest struct {
	Name     string  `json:"name"`
	Pclass   int     `json:"pclass"`
	Sex      string  `json:"sex"`
	Age      int     `json:"age"`
	SibSp    int     `json:"sibsp"`
	Parch    int     `json:"parch"`
	Fare     float64 `json:"fare"`
	Embarked string  `json:"embarked"`
	HasCabin bool    `json:"has_cabin"`
}

// decode turns the wire request into a Passenger, collecting category and
// range problems the form widgets used to make impossible.
func (req predictRequest) decode() (ml.Passenger, []string) {
	var errs []string

	sex, ok := ml.ParseSex(req.Sex)
	if !ok {
		errs = append(errs, fmt.Sprintf("Sex must be male or female, got %q.", req.Sex))
	}
	embarked, ok := ml.ParseEmbarked(req.Embarked)
	if !ok {
		errs = append(errs, fmt.Sprintf("Embarked must be S, C or Q, got %q.", req.Embarked))
	}
	if req.Pclass < 1 || req.Pclass > 3 {
		errs = append(errs, "Pclass must be 1, 2 or 3.")
	}
	if req.SibSp < 0 || req.SibSp > 10 {
		errs = append(errs, "SibSp must be between 0 and 10.")
	}
	if req.Parch < 0 || req.Parch > 10 {
		errs = append(errs, "Parch must be between 0 and 10.")
	}
	if len(errs) > 0 {
		return ml.Passenger{}, errs
	}

	return ml.Passenger{
		Name:     req.Name,
		Pclass:   req.Pclass,
		Sex:      sex,
		Age:      req.Age,
		SibSp:    req.SibSp,
		Parch:    req.Parch,
		Fare:     req.Fare,
		Embarked: embarked,
		HasCabin: req.HasCabin,
	}, nil
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrors(w, http.StatusBadRequest, []string{"invalid JSON body"})
		return
	}

	passenger, errs := req.decode()
	if len(errs) > 0 {
		respondErrors(w, http.StatusBadRequest, errs)
		return
	}

	result, violations, err := a.svc.Predict(sessionID, passenger)
	if err != nil {
		// Schema mismatch or a broken artifact: surfaced verbatim, never
		// papered over with a default prediction.
		a.logger.Error("prediction failed", zap.Error(err))
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}
	if len(violations) > 0 {
		respondErrors(w, http.StatusBadRequest, violations)
		return
	}

	respondJSON(w, result)
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)
	entries := a.svc.History(sessionID).List()
	respondJSON(w, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

func (a *API) handleEntry(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)
	entry, ok := a.svc.History(sessionID).SelectByID(r.PathValue("id"))
	if !ok {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}
	respondJSON(w, entry)
}

func (a *API) handleSelect(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)
	label := r.URL.Query().Get("label")
	if label == "" {
		http.Error(w, `{"error":"label is required"}`, http.StatusBadRequest)
		return
	}
	entry, ok := a.svc.History(sessionID).SelectByLabel(label)
	if !ok {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}
	respondJSON(w, entry)
}

func (a *API) handleExportAll(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)
	writeCSVHeaders(w, "titanic_prediction_history.csv")
	if err := a.svc.History(sessionID).ExportAll(w); err != nil {
		a.logger.Error("history export failed", zap.Error(err))
	}
}

func (a *API) handleExportEntry(w http.ResponseWriter, r *http.Request) {
	sessionID := a.session(w, r)
	entry, ok := a.svc.History(sessionID).SelectByID(r.PathValue("id"))
	if !ok {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}
	writeCSVHeaders(w, exportFilename(entry))
	if err := history.ExportCSV(w, []history.Entry{entry}); err != nil {
		a.logger.Error("entry export failed", zap.Error(err))
	}
}

func (a *API) handleHistoryWS(w http.ResponseWriter, r *http.Request) {
	// Websocket clients identify their session via query parameter since
	// browsers cannot set custom headers on the upgrade request.
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = r.Header.Get(sessionHeader)
	}
	if sessionID == "" {
		http.Error(w, `{"error":"session is required"}`, http.StatusBadRequest)
		return
	}
	a.hub.Serve(w, r, sessionID)
}

func exportFilename(e history.Entry) string {
	label := strings.ReplaceAll(e.Label(), " | ", "_")
	label = strings.ReplaceAll(label, ":", "-")
	return "titanic_prediction_" + label + ".csv"
}

func writeCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func respondErrors(w http.ResponseWriter, status int, messages []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string][]string{"errors": messages})
}
