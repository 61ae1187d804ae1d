package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"weathersense/ml"
)

const maxRequestBody = 4 << 10

type Handler struct {
	svc      *PredictService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler serves svc. Websocket connections are accepted from the given
// origins, "*" meaning any.
func NewHandler(svc *PredictService, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, upgrader: newUpgrader(allowedOrigins), log: log}
}

// RegisterRoutes mounts the JSON API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/api/inputs", h.handleInputs)
	r.Get("/api/stats", h.handleStats)
	r.With(RequestSizeMiddleware(maxRequestBody)).Post("/api/predict", h.handlePredict)
}

// RegisterStreamRoutes mounts the long-lived websocket endpoint. It must sit
// outside the timeout and gzip middlewares.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/api/ws/predict", h.handlePredictWS)
}

type healthResponse struct {
	Status    string          `json:"status"`
	Artifacts ml.ArtifactInfo `json:"artifacts"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Artifacts: h.svc.Info()})
}

type inputsResponse struct {
	Inputs   []ml.InputSpec     `json:"inputs"`
	Defaults ml.WeatherFeatures `json:"defaults"`
}

func (h *Handler) handleInputs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inputsResponse{
		Inputs:   ml.InputSpecs(),
		Defaults: ml.DefaultFeatures(),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Metrics().Snapshot())
}

// handlePredict accepts a JSON object of readings. Omitted readings take
// their default input values.
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	f, err := decodeFeatures(r)
	if err != nil {
		h.svc.Metrics().RecordInvalid()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.Predict(r.Context(), f)
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Error(), Fields: invalid.Fields})
	case r.Context().Err() != nil:
		// the timeout middleware answers
	default:
		h.log.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func decodeFeatures(r *http.Request) (ml.WeatherFeatures, error) {
	f := ml.DefaultFeatures()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return f, errors.New("request body too large")
		}
		return f, errors.New("invalid JSON body: " + err.Error())
	}
	return f, nil
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
