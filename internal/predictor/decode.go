package predictor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/training-suitability/internal/domain"
)

type predictRequest struct {
	Features [5]int `json:"features"`
}

// predictResponse mirrors the /predict body. Pointer fields distinguish a
// missing field from its zero value.
type predictResponse struct {
	Prediction          *int           `json:"prediction"`
	SuitableForTraining *bool          `json:"suitable_for_training"`
	Confidence          *string        `json:"confidence"`
	Message             *string        `json:"message"`
	InputFeatures       *inputFeatures `json:"input_features"`
}

type inputFeatures struct {
	OutlookRainy    *int `json:"outlook_rainy"`
	OutlookSunny    *int `json:"outlook_sunny"`
	TemperatureHot  *int `json:"temperature_hot"`
	TemperatureMild *int `json:"temperature_mild"`
	HumidityNormal  *int `json:"humidity_normal"`
}

// decodedPrediction is a /predict body that passed schema checks.
type decodedPrediction struct {
	Label      int
	Confidence string
	Message    string
	Echoed     domain.FeatureVector
}

func decodePrediction(body []byte) (decodedPrediction, error) {
	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decodedPrediction{}, fmt.Errorf("decode prediction: %w", err)
	}

	if resp.Prediction == nil {
		return decodedPrediction{}, errors.New(`missing field "prediction"`)
	}
	if err := checkBit("prediction", *resp.Prediction); err != nil {
		return decodedPrediction{}, err
	}
	if resp.SuitableForTraining == nil {
		return decodedPrediction{}, errors.New(`missing field "suitable_for_training"`)
	}
	if *resp.SuitableForTraining != (*resp.Prediction == 1) {
		return decodedPrediction{}, fmt.Errorf("suitable_for_training=%t disagrees with prediction=%d",
			*resp.SuitableForTraining, *resp.Prediction)
	}
	if resp.InputFeatures == nil {
		return decodedPrediction{}, errors.New(`missing field "input_features"`)
	}
	echoed, err := resp.InputFeatures.vector()
	if err != nil {
		return decodedPrediction{}, err
	}

	out := decodedPrediction{
		Label:      *resp.Prediction,
		Confidence: domain.DefaultConfidence,
		Message:    domain.DefaultMessage,
		Echoed:     echoed,
	}
	if resp.Confidence != nil {
		out.Confidence = *resp.Confidence
	}
	if resp.Message != nil {
		out.Message = *resp.Message
	}
	return out, nil
}

func (f *inputFeatures) vector() (domain.FeatureVector, error) {
	fields := []struct {
		name string
		v    *int
	}{
		{"outlook_rainy", f.OutlookRainy},
		{"outlook_sunny", f.OutlookSunny},
		{"temperature_hot", f.TemperatureHot},
		{"temperature_mild", f.TemperatureMild},
		{"humidity_normal", f.HumidityNormal},
	}

	var bits [5]int
	for i, field := range fields {
		if field.v == nil {
			return domain.FeatureVector{}, fmt.Errorf("missing field %q in input_features", field.name)
		}
		if err := checkBit("input_features."+field.name, *field.v); err != nil {
			return domain.FeatureVector{}, err
		}
		bits[i] = *field.v
	}
	return domain.FeatureVectorFromBinary(bits), nil
}

func checkBit(name string, v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("field %q must be 0 or 1, got %d", name, v)
	}
	return nil
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Message     string `json:"message"`
}

// decodeHealth is lenient: a body that does not decode yields a zero status,
// which reports unhealthy.
func decodeHealth(body []byte) (domain.HealthStatus, bool) {
	var resp healthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.HealthStatus{}, false
	}
	return domain.HealthStatus{
		Status:      resp.Status,
		ModelLoaded: resp.ModelLoaded,
		Message:     resp.Message,
	}, true
}

// errorMessage extracts the service-reported reason from an error body,
// preferring "message" over "error".
func errorMessage(body []byte) string {
	var resp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if resp.Message != "" {
		return resp.Message
	}
	return resp.Error
}
