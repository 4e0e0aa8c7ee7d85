package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/divergence"
	"github.com/wonny/vigil/backend/internal/drift"
	"github.com/wonny/vigil/backend/internal/subgroup"
)

// DefaultSubgroupKeys 샘플 데이터의 범주형 키
var DefaultSubgroupKeys = []string{"category", "user_type", "region"}

// 주 단위 증거 판정 기준
const (
	confidenceStableBand = 0.05
	accuracyDeclineFloor = 0.10
	monitoredFeature     = "amount"
)

// Service assembles analysis outputs into dashboard response shapes.
// ⭐ SSOT: 외부 응답 모양은 전부 이 패키지에서만 만든다
type Service struct {
	thresholds contracts.Thresholds
	baseline   *contracts.BaselineProfile
	loader     contracts.BatchLoader
	comparator *drift.Comparator
	scorer     *drift.Scorer
	analyzer   *subgroup.Analyzer
	tracker    *divergence.Tracker
	store      contracts.LogStore
	keys       []string
	log        zerolog.Logger
}

func NewService(
	baseline *contracts.BaselineProfile,
	thresholds contracts.Thresholds,
	loader contracts.BatchLoader,
	store contracts.LogStore,
	log zerolog.Logger,
) *Service {
	return &Service{
		thresholds: thresholds,
		baseline:   baseline,
		loader:     loader,
		comparator: drift.NewComparator(thresholds, log),
		scorer:     drift.NewScorer(thresholds),
		analyzer:   subgroup.NewAnalyzer(thresholds, log),
		tracker:    divergence.NewTracker(baseline, thresholds, log),
		store:      store,
		keys:       DefaultSubgroupKeys,
		log:        log.With().Str("component", "report_service").Logger(),
	}
}

// WeekComparison 주차별 스냅샷과 silent degradation 증거 요약
func (s *Service) WeekComparison(ctx context.Context) (*WeekComparisonResponse, error) {
	weeks, err := s.loader.Weeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}

	baseBatch, err := s.loader.LoadWeek(ctx, s.baseline.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline week: %w", err)
	}
	baseAmounts := baseBatch.Features[monitoredFeature]

	resp := &WeekComparisonResponse{}
	for _, week := range weeks {
		batch, err := s.loader.LoadWeek(ctx, week)
		if err != nil {
			return nil, fmt.Errorf("failed to load week %d: %w", week, err)
		}

		level := contracts.LevelStable
		if cmp, err := s.comparator.Compare(baseAmounts, batch.Features[monitoredFeature]); err == nil {
			_, level = s.scorer.Score(s.comparator.Results(cmp))
		}

		resp.Weeks = append(resp.Weeks, s.tracker.Snapshot(batch, level))
	}

	resp.Evidence = s.evidence(resp.Weeks)
	return resp, nil
}

// evidence 신뢰도는 그대로인데 정확도만 내려가는 패턴 감지
func (s *Service) evidence(weeks []contracts.WeekSnapshot) DegradationEvidence {
	ev := DegradationEvidence{ConfidenceStable: true}
	for _, snap := range weeks {
		if abs(snap.Confidence-s.baseline.Confidence) > confidenceStableBand {
			ev.ConfidenceStable = false
		}
	}
	if len(weeks) > 0 {
		last := weeks[len(weeks)-1]
		ev.AccuracyDeclining = s.baseline.Accuracy-last.Accuracy > accuracyDeclineFloor
	}
	return ev
}

// DriftStatus 예측 로그 기반의 상시 상태 뷰
// 주차 스냅샷을 읽을 수 없으면 추세는 flat으로 둔다.
func (s *Service) DriftStatus(ctx context.Context) (*contracts.DriftStatus, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction log: %w", err)
	}

	trend := contracts.TrendFlat
	if comparison, err := s.WeekComparison(ctx); err == nil {
		trend = s.tracker.TrendOver(comparison.Weeks)
	}

	status := s.tracker.Status(entries, trend)
	return &status, nil
}

// Subgroups 서브그룹 분석 + (라벨이 있으면) 서브그룹별 정확도
func (s *Service) Subgroups(ctx context.Context, week int) (*SubgroupResponse, error) {
	baseBatch, err := s.loader.LoadWeek(ctx, s.baseline.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline week: %w", err)
	}
	batch, err := s.loader.LoadWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load week %d: %w", week, err)
	}

	analysis, err := s.analyzer.Analyze(ctx, baseBatch, batch, monitoredFeature, s.keys)
	if err != nil {
		return nil, err
	}

	return &SubgroupResponse{
		Analysis: analysis,
		Accuracy: subgroup.Accuracy(batch, s.keys),
	}, nil
}

// UnsupervisedDrift 라벨 없이 분포만으로 본 주차별 드리프트
func (s *Service) UnsupervisedDrift(ctx context.Context, week int) (*UnsupervisedDriftResponse, error) {
	baseBatch, err := s.loader.LoadWeek(ctx, s.baseline.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline week: %w", err)
	}
	batch, err := s.loader.LoadWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load week %d: %w", week, err)
	}

	cmp, err := s.comparator.Compare(
		baseBatch.Features[monitoredFeature], batch.Features[monitoredFeature])
	if err != nil {
		return nil, err
	}

	results := s.comparator.Results(cmp)
	score, level := s.scorer.Score(results)

	resp := &UnsupervisedDriftResponse{
		Week:             week,
		BaselineWeek:     s.baseline.Week,
		Feature:          monitoredFeature,
		Methods:          methodBreakdowns(cmp, results),
		CategoricalShift: make(map[string]float64, len(s.keys)),
		OverallScore:     score,
		OverallLevel:     level,
		Interpretation:   interpretLevel(level),
	}

	for _, key := range s.keys {
		baseCol, okBase := baseBatch.Categorical[key]
		curCol, okCur := batch.Categorical[key]
		if okBase && okCur {
			resp.CategoricalShift[key] = totalVariation(baseCol, curCol)
		}
	}

	return resp, nil
}

// SilentDegradation 기준 주와 비교 주의 괴리 증거
func (s *Service) SilentDegradation(ctx context.Context, week int) (*SilentDegradationResponse, error) {
	baseBatch, err := s.loader.LoadWeek(ctx, s.baseline.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline week: %w", err)
	}
	batch, err := s.loader.LoadWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load week %d: %w", week, err)
	}

	level := contracts.LevelStable
	if cmp, err := s.comparator.Compare(
		baseBatch.Features[monitoredFeature], batch.Features[monitoredFeature]); err == nil {
		_, level = s.scorer.Score(s.comparator.Results(cmp))
	}

	baseSnap := s.tracker.Snapshot(baseBatch, contracts.LevelStable)
	curSnap := s.tracker.Snapshot(batch, level)

	return &SilentDegradationResponse{
		Baseline:         baseSnap,
		Current:          curSnap,
		Degradation:      s.tracker.Degrade(baseSnap, curSnap),
		WhyDangerous:     divergence.WhyDangerous(),
		DetectionMethods: divergence.DetectionMethods(),
	}, nil
}

// Overview 관리용 시스템 요약
func (s *Service) Overview(ctx context.Context) (*AdminOverview, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction log: %w", err)
	}

	weeks, err := s.loader.Weeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}

	return &AdminOverview{
		TotalPredictions: len(entries),
		LoadedWeeks:      weeks,
		BaselineWeek:     s.baseline.Week,
		BaselineAccuracy: s.baseline.Accuracy,
		BaselineCreated:  s.baseline.CreatedAt.Format(time.RFC3339),
		Detectors:        divergence.DetectionMethods(),
	}, nil
}

// ClearLog 예측 로그 비우기 (관리용)
func (s *Service) ClearLog(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// methodBreakdowns Comparison을 방법별 상세 블록으로 변환한다
func methodBreakdowns(cmp *drift.Comparison, results []contracts.DriftResult) []MethodBreakdown {
	out := make([]MethodBreakdown, 0, len(results))
	for _, r := range results {
		mb := MethodBreakdown{
			Method:    r.Method,
			Score:     r.Score,
			Statistic: r.Statistic,
		}
		switch r.Method {
		case contracts.MethodPSI:
			mb.Interpretation = cmp.PSIInterpretation
			mb.Bins = cmp.PSIBins
		case contracts.MethodKS:
			p := cmp.KSPValue
			sig := cmp.KSSignificant
			mb.PValue = &p
			mb.Significant = &sig
		}
		out = append(out, mb)
	}
	return out
}

// totalVariation 범주 분포 간 총변동 거리: 0.5 * Σ|p - q|, [0,1]
func totalVariation(baseline, current []string) float64 {
	if len(baseline) == 0 || len(current) == 0 {
		return 0
	}

	baseCounts := make(map[string]int)
	for _, v := range baseline {
		baseCounts[v]++
	}
	curCounts := make(map[string]int)
	for _, v := range current {
		curCounts[v]++
	}

	values := make(map[string]struct{}, len(baseCounts))
	for v := range baseCounts {
		values[v] = struct{}{}
	}
	for v := range curCounts {
		values[v] = struct{}{}
	}

	sum := 0.0
	for v := range values {
		p := float64(baseCounts[v]) / float64(len(baseline))
		q := float64(curCounts[v]) / float64(len(current))
		sum += abs(p - q)
	}
	return sum / 2
}

func interpretLevel(level contracts.DriftLevel) string {
	switch level {
	case contracts.LevelCritical:
		return "input distribution has shifted far outside the training regime"
	case contracts.LevelModerate:
		return "meaningful distribution shift detected without any labels"
	case contracts.LevelWarning:
		return "early signs of distribution shift"
	default:
		return "current distribution matches the baseline"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
