// Package scoringstub is a reference implementation of the scoring service
// wire contract, used for local development and end-to-end tests.
package scoringstub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Server serves /predict and /health.
type Server struct {
	mu       sync.RWMutex
	model    Model
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Server. A nil model starts the server without a model:
// /health reports model_loaded=false and /predict fails with 500.
func New(model Model, logger *slog.Logger) *Server {
	return &Server{
		model:    model,
		validate: validator.New(),
		logger:   logger,
	}
}

// SetModel swaps the model at runtime. Pass nil to unload it.
func (s *Server) SetModel(m Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

func (s *Server) currentModel() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/predict", s.handlePredict)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found", "Available endpoints: /health (GET), /predict (POST)")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "Available endpoints: /health (GET), /predict (POST)")
	})
	return r
}

type healthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Message:     "AI Model Server is running",
		ModelLoaded: s.currentModel() != nil,
	})
}

type inputFeatures struct {
	OutlookRainy    int `json:"outlook_rainy"`
	OutlookSunny    int `json:"outlook_sunny"`
	TemperatureHot  int `json:"temperature_hot"`
	TemperatureMild int `json:"temperature_mild"`
	HumidityNormal  int `json:"humidity_normal"`
}

type predictResponse struct {
	Prediction          int           `json:"prediction"`
	SuitableForTraining bool          `json:"suitable_for_training"`
	Confidence          string        `json:"confidence"`
	InputFeatures       inputFeatures `json:"input_features"`
	Message             string        `json:"message"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	model := s.currentModel()
	if model == nil {
		writeError(w, http.StatusInternalServerError, "Model not loaded", "Please ensure a model is available")
		return
	}

	features, status, errTitle, errMsg := s.readFeatures(r)
	if status != 0 {
		writeError(w, status, errTitle, errMsg)
		return
	}

	label, err := model.Predict(features)
	if err != nil {
		s.logger.Error("prediction failed", "error", err, "features", features)
		writeError(w, http.StatusInternalServerError, "Prediction failed", err.Error())
		return
	}

	message := "Not suitable for exercise"
	if label == 1 {
		message = "Suitable for exercise"
	}
	s.logger.Debug("prediction served", "features", features, "prediction", label)

	writeJSON(w, http.StatusOK, predictResponse{
		Prediction:          label,
		SuitableForTraining: label == 1,
		Confidence:          "high",
		InputFeatures: inputFeatures{
			OutlookRainy:    features[0],
			OutlookSunny:    features[1],
			TemperatureHot:  features[2],
			TemperatureMild: features[3],
			HumidityNormal:  features[4],
		},
		Message: message,
	})
}

// readFeatures parses and validates the request body. A non-zero status
// means the request was rejected with the returned error title and message.
func (s *Server) readFeatures(r *http.Request) ([5]int, int, string, string) {
	var features [5]int

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["features"] == nil {
		return features, http.StatusBadRequest, "Invalid request", `Request must contain "features" array`
	}

	var raw []any
	if err := json.Unmarshal(body["features"], &raw); err != nil || s.validate.Var(raw, "required,len=5") != nil {
		return features, http.StatusBadRequest, "Invalid features", "Features must be an array of exactly 5 values"
	}

	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return features, http.StatusBadRequest, "Invalid feature values", "All features must be binary (0 or 1)"
		}
		values = append(values, f)
	}
	if err := s.validate.Var(values, "dive,eq=0|eq=1"); err != nil {
		return features, http.StatusBadRequest, "Invalid feature values", "All features must be binary (0 or 1)"
	}

	for i, v := range values {
		features[i] = int(v)
	}
	return features, 0, "", ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, map[string]string{"error": title, "message": message})
}
