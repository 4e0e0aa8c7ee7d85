// Package baseline 기준 프로파일 생성
// ⭐ SSOT: BaselineProfile은 여기서만 만들어지고 이후 불변이다.
package baseline

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
	"github.com/wonny/vigil/backend/internal/drift"
)

// Builder computes an immutable baseline profile from the reference week.
type Builder struct {
	thresholds contracts.Thresholds
	log        zerolog.Logger
}

func NewBuilder(thresholds contracts.Thresholds, log zerolog.Logger) *Builder {
	return &Builder{
		thresholds: thresholds,
		log:        log.With().Str("component", "baseline_builder").Logger(),
	}
}

// Build 기준 주 배치에서 프로파일을 만든다.
// 빈 배치는 InsufficientDataError. 기준 없는 기동은 의미가 없다.
func (b *Builder) Build(batch *contracts.SampleBatch, subgroupKeys []string) (*contracts.BaselineProfile, error) {
	if batch.Len() == 0 {
		return nil, contracts.NewInsufficientDataError("baseline", 0)
	}

	profile := &contracts.BaselineProfile{
		Week:      batch.Week,
		Features:  make(map[string]contracts.BaselineStats, len(batch.Features)),
		Subgroups: make(map[string]map[string]contracts.GroupStats, len(subgroupKeys)),
		CreatedAt: time.Now().UTC(),
	}

	for name, values := range batch.Features {
		if len(values) == 0 {
			return nil, contracts.NewInsufficientDataError(fmt.Sprintf("baseline feature %s", name), 0)
		}
		profile.Features[name] = contracts.BaselineStats{
			Mean:      drift.Mean(values),
			Std:       drift.StdDev(values),
			Histogram: histogram(values, b.thresholds.PSIBins),
			N:         len(values),
		}
	}

	if amount, ok := profile.Features["amount"]; ok {
		profile.AmountMean = amount.Mean
		profile.AmountStd = amount.Std
	}

	if batch.HasLabels() {
		profile.Accuracy = accuracy(batch)
	}
	profile.Confidence = meanConfidence(batch)

	amounts := batch.Features["amount"]
	for _, key := range subgroupKeys {
		column, ok := batch.Categorical[key]
		if !ok {
			continue
		}
		profile.Subgroups[key] = groupStats(amounts, column)
	}

	b.log.Info().
		Int("week", profile.Week).
		Int("n", batch.Len()).
		Float64("accuracy", profile.Accuracy).
		Float64("confidence", profile.Confidence).
		Msg("baseline profile built")

	return profile, nil
}

// histogram 균등 폭 구간의 (하한, 개수) 목록. Edge는 오름차순.
func histogram(values []float64, bins int) []contracts.HistogramBin {
	if bins < 1 {
		bins = 1
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]contracts.HistogramBin, bins)
	width := (hi - lo) / float64(bins)
	for i := range out {
		out[i].Edge = lo + float64(i)*width
	}

	if width == 0 {
		// 상수 분포는 첫 구간에 전부 담는다
		out[0].Count = len(values)
		return out
	}

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}

	return out
}

func accuracy(batch *contracts.SampleBatch) float64 {
	rows := len(batch.Predictions)
	if len(batch.TrueLabels) < rows {
		rows = len(batch.TrueLabels)
	}
	if rows == 0 {
		return 0
	}

	correct := 0
	for i := 0; i < rows; i++ {
		if batch.Predictions[i].Label == batch.TrueLabels[i] {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

func meanConfidence(batch *contracts.SampleBatch) float64 {
	if len(batch.Predictions) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range batch.Predictions {
		sum += p.Confidence
	}
	return sum / float64(len(batch.Predictions))
}

func groupStats(amounts []float64, column []string) map[string]contracts.GroupStats {
	byValue := make(map[string][]float64)
	for i, value := range column {
		if i < len(amounts) {
			byValue[value] = append(byValue[value], amounts[i])
		}
	}

	values := make([]string, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Strings(values)

	out := make(map[string]contracts.GroupStats, len(byValue))
	for _, v := range values {
		rows := byValue[v]
		out[v] = contracts.GroupStats{
			Mean:  drift.Mean(rows),
			Std:   drift.StdDev(rows),
			Count: len(rows),
		}
	}
	return out
}
