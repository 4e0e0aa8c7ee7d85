package subgroup

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/drift"
)

// Analyzer 카테고리 키별 서브그룹 드리프트 분석기
// 집계 지표가 숨기는 국소 편향을 드러내는 것이 존재 이유다.
type Analyzer struct {
	thresholds contracts.Thresholds
	comparator *drift.Comparator
	scorer     *drift.Scorer
	log        zerolog.Logger
}

// NewAnalyzer 새 분석기 생성
func NewAnalyzer(thresholds contracts.Thresholds, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		thresholds: thresholds,
		comparator: drift.NewComparator(thresholds, log),
		scorer:     drift.NewScorer(thresholds),
		log:        log.With().Str("component", "subgroup.analyzer").Logger(),
	}
}

// Analyze partitions both batches by each categorical key and compares the
// numeric feature per subgroup value.
// 표본이 MinSubgroupN 미만인 조합은 MISSING_DATA. 정상 결과이지 에러가 아니다.
// 미지의 카테고리 값도 자기 서브그룹으로 취급한다. 조용히 버리지 않는다.
func (a *Analyzer) Analyze(
	ctx context.Context,
	baseline, current *contracts.SampleBatch,
	feature string,
	subgroupKeys []string,
) (*contracts.SubgroupAnalysis, error) {
	baseVals, ok := baseline.Features[feature]
	if !ok || len(baseVals) == 0 {
		return nil, contracts.NewInsufficientDataError("baseline", 0)
	}
	currVals, ok := current.Features[feature]
	if !ok || len(currVals) == 0 {
		return nil, contracts.NewInsufficientDataError("current", 0)
	}

	// Aggregate (whole-population) drift for the same feature. The
	// localized-bias rule compares subgroup severity against this.
	aggCmp, err := a.comparator.Compare(baseVals, currVals)
	if err != nil {
		return nil, err
	}
	aggScore, aggLevel := a.scorer.Score(a.comparator.Results(aggCmp))

	analysis := &contracts.SubgroupAnalysis{
		Feature:        feature,
		Week:           current.Week,
		AggregateScore: aggScore,
		AggregateLevel: aggLevel,
		Keys:           make(map[string]contracts.SubgroupKeyReport, len(subgroupKeys)),
	}

	for _, key := range subgroupKeys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		report := a.analyzeKey(baseline, current, feature, key)
		analysis.Keys[key] = report

		for _, sg := range report.Subgroups {
			if sg.Status != contracts.SubgroupAnalyzed || sg.DriftLevel == nil {
				continue
			}
			// 서브그룹이 MODERATE 이상인데 집계는 WARNING 이하면
			// 집계가 더 나쁜 국소 신호를 가리고 있다.
			if sg.DriftLevel.AtLeast(contracts.LevelModerate) &&
				!aggLevel.AtLeast(contracts.LevelModerate) {
				analysis.LocalizedBiasDetected = true
			}
		}
	}

	a.log.Info().
		Str("feature", feature).
		Int("week", current.Week).
		Float64("aggregate_score", aggScore).
		Str("aggregate_level", string(aggLevel)).
		Bool("localized_bias", analysis.LocalizedBiasDetected).
		Msg("subgroup analysis completed")

	return analysis, nil
}

// analyzeKey runs the per-value comparisons for one categorical key.
func (a *Analyzer) analyzeKey(
	baseline, current *contracts.SampleBatch,
	feature, key string,
) contracts.SubgroupKeyReport {
	report := contracts.SubgroupKeyReport{
		Subgroups: make(map[string]contracts.SubgroupResult),
	}

	// Observed values from both batches, sorted for deterministic order.
	values := observedValues(baseline.Categorical[key], current.Categorical[key])

	var analyzedScores []float64
	for _, value := range values {
		baseRows := matchRows(baseline, feature, key, value)
		currRows := matchRows(current, feature, key, value)

		result := contracts.SubgroupResult{
			Feature:       feature,
			Key:           key,
			Value:         value,
			BaselineCount: len(baseRows),
			CurrentCount:  len(currRows),
		}

		if len(baseRows) < a.thresholds.MinSubgroupN || len(currRows) < a.thresholds.MinSubgroupN {
			// 점수 필드는 전부 부재로 남긴다. 0이 아니라 없음이다.
			result.Status = contracts.SubgroupMissingData
			report.Subgroups[value] = result
			continue
		}

		cmp, err := a.comparator.Compare(baseRows, currRows)
		if err != nil {
			// Compare는 빈 표본에서만 실패하는데 위에서 이미 걸렀다.
			result.Status = contracts.SubgroupMissingData
			report.Subgroups[value] = result
			continue
		}

		methods := a.comparator.Results(cmp)
		score, level := a.scorer.Score(methods)

		result.Status = contracts.SubgroupAnalyzed
		result.DriftScore = &score
		lvl := level
		result.DriftLevel = &lvl
		result.Methods = methods
		result.BaselineStats = groupStats(baseRows)
		result.CurrentStats = groupStats(currRows)

		analyzedScores = append(analyzedScores, score)

		switch level {
		case contracts.LevelCritical:
			report.Summary.CriticalCount++
		case contracts.LevelWarning:
			report.Summary.WarningCount++
		case contracts.LevelStable:
			report.Summary.StableCount++
		}

		report.Subgroups[value] = result
	}

	report.Summary.TotalSubgroups = len(report.Subgroups)
	report.Summary.Analyzed = len(analyzedScores)

	if len(analyzedScores) > 0 {
		avg := drift.Mean(analyzedScores)
		max := analyzedScores[0]
		for _, s := range analyzedScores[1:] {
			if s > max {
				max = s
			}
		}
		report.Summary.AvgDriftScore = &avg
		report.Summary.MaxDriftScore = &max
	}

	return report
}

// matchRows selects the numeric feature values whose row has the given
// categorical value. 행 정렬은 배치 구성 시 보장된다 (같은 인덱스 = 같은 행).
func matchRows(batch *contracts.SampleBatch, feature, key, value string) []float64 {
	cats := batch.Categorical[key]
	vals := batch.Features[feature]

	n := len(cats)
	if len(vals) < n {
		n = len(vals)
	}

	var rows []float64
	for i := 0; i < n; i++ {
		if cats[i] == value {
			rows = append(rows, vals[i])
		}
	}
	return rows
}

func observedValues(baseline, current []string) []string {
	seen := make(map[string]struct{})
	for _, v := range baseline {
		seen[v] = struct{}{}
	}
	for _, v := range current {
		seen[v] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func groupStats(rows []float64) *contracts.GroupStats {
	return &contracts.GroupStats{
		Mean:  drift.Mean(rows),
		Std:   drift.StdDev(rows),
		Count: len(rows),
	}
}

// Accuracy computes per-subgroup accuracy/confidence from predictions and
// true labels. 라벨이 없으면 nil을 돌려준다. 0으로 꾸미지 않는다.
type AccuracyEntry struct {
	Accuracy    float64 `json:"accuracy"`
	Confidence  float64 `json:"confidence"`
	SampleCount int     `json:"sample_count"`
}

// Accuracy returns key -> value -> accuracy summary for a labeled batch.
func Accuracy(batch *contracts.SampleBatch, subgroupKeys []string) map[string]map[string]AccuracyEntry {
	if !batch.HasLabels() || len(batch.Predictions) == 0 {
		return nil
	}

	n := len(batch.TrueLabels)
	if len(batch.Predictions) < n {
		n = len(batch.Predictions)
	}

	out := make(map[string]map[string]AccuracyEntry, len(subgroupKeys))
	for _, key := range subgroupKeys {
		cats := batch.Categorical[key]
		if len(cats) == 0 {
			continue
		}

		byValue := make(map[string]*accuracyAcc)
		limit := n
		if len(cats) < limit {
			limit = len(cats)
		}
		for i := 0; i < limit; i++ {
			acc, ok := byValue[cats[i]]
			if !ok {
				acc = &accuracyAcc{}
				byValue[cats[i]] = acc
			}
			acc.count++
			acc.confidence += batch.Predictions[i].Confidence
			if batch.Predictions[i].Label == batch.TrueLabels[i] {
				acc.correct++
			}
		}

		entries := make(map[string]AccuracyEntry, len(byValue))
		for value, acc := range byValue {
			entries[value] = AccuracyEntry{
				Accuracy:    float64(acc.correct) / float64(acc.count),
				Confidence:  acc.confidence / float64(acc.count),
				SampleCount: acc.count,
			}
		}
		out[key] = entries
	}
	return out
}

type accuracyAcc struct {
	count      int
	correct    int
	confidence float64
}
