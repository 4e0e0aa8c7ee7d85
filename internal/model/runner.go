// Package model 불투명 분류기 호출
// 모니터는 모델 내부를 모른다. HTTP 너머의 협력자일 뿐이다.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/pkg/httputil"
)

// RemoteRunner calls the external model service.
// ⭐ SSOT: 모델 서비스 HTTP 호출은 여기서만
type RemoteRunner struct {
	client  *httputil.Client
	baseURL string
	log     zerolog.Logger
}

func NewRemoteRunner(baseURL string, client *httputil.Client, log zerolog.Logger) *RemoteRunner {
	return &RemoteRunner{
		client:  client,
		baseURL: baseURL,
		log:     log.With().Str("component", "model_client").Logger(),
	}
}

// Predict POST /predict 호출 결과를 그대로 돌려준다.
func (r *RemoteRunner) Predict(ctx context.Context, features contracts.FeatureVector) (*contracts.Prediction, error) {
	resp, err := r.client.PostJSON(ctx, r.baseURL+"/predict", features)
	if err != nil {
		return nil, fmt.Errorf("model service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned status %d", resp.StatusCode)
	}

	var pred contracts.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	return &pred, nil
}

// LocalRunner is a deterministic in-process classifier for development
// and scheduled batch analysis when no model service is configured.
// 원본 데모 모델처럼 입력이 어디서 왔든 항상 자신만만하다.
type LocalRunner struct {
	Threshold float64 // amount 경계 (기본: 150)
	Scale     float64 // 시그모이드 기울기 (기본: 25)
}

func NewLocalRunner() *LocalRunner {
	return &LocalRunner{Threshold: 150, Scale: 25}
}

func (r *LocalRunner) Predict(_ context.Context, features contracts.FeatureVector) (*contracts.Prediction, error) {
	score := 1.0 / (1.0 + math.Exp(-(features.Amount-r.Threshold)/r.Scale))

	label := 0
	confidence := 1 - score
	if score >= 0.5 {
		label = 1
		confidence = score
	}

	return &contracts.Prediction{Label: label, Score: score, Confidence: confidence}, nil
}
