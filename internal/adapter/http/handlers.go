package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

const (
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second
)

var validate = validator.New()

type predictRequest struct {
	HorizonMonths *int     `json:"horizonte_meses" validate:"required"`
	Scenario      string   `json:"escenario" default:"normal" validate:"max=32"`
	Level         *float64 `json:"nivel_actual_usuario"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type scenarioFactor struct {
	Name   domain.Scenario `json:"nombre"`
	Factor float64         `json:"factor"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	req, errResp := decodePredictRequest(w, r)
	if errResp != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errResp)
		return
	}

	resp, err := s.predictor.PredictScenario(r.Context(), *req.HorizonMonths, req.Scenario, req.Level)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
		if err := s.publisher.Publish(ctx, resp); err != nil {
			s.logger.Warn("prediction publish failed", "id", resp.ID, "error", err)
		}
		cancel()
	}

	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func decodePredictRequest(w http.ResponseWriter, r *http.Request) (predictRequest, *errorResponse) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, &errorResponse{Error: "invalid_request", Message: fmt.Sprintf("decode body: %v", err)}
	}
	if err := defaults.Set(&req); err != nil {
		return req, &errorResponse{Error: "invalid_request", Message: err.Error()}
	}
	if err := validate.StructCtx(r.Context(), &req); err != nil {
		resp := &errorResponse{Error: "invalid_request", Message: "request validation failed"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, fieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
		}
		return req, resp
	}
	return req, nil
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	factors := s.catalog.Scenarios()
	out := make([]scenarioFactor, 0, len(domain.Scenarios))
	for _, sc := range domain.Scenarios {
		out = append(out, scenarioFactor{Name: sc, Factor: factors[sc]})
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"escenarios": out})
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	t, err := s.catalog.Thresholds()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, t)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := pipeline.ErrorKind(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "kind", kind, "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: kind, Message: err.Error()})
}

func statusFor(kind string) int {
	switch kind {
	case "invalid_horizon", "unknown_scenario", "invalid_level":
		return http.StatusBadRequest
	case "not_initialized":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
