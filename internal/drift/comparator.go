package drift

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/vigil/backend/internal/contracts"
)

// Comparison 기준/현재 표본 비교 결과 (방법별 원시값 + 정규화값)
type Comparison struct {
	PSI               float64  `json:"psi"`
	PSIBins           []PSIBin `json:"psi_bins"`
	PSIInterpretation string   `json:"psi_interpretation"`
	KSStatistic       float64  `json:"ks_statistic"`
	KSPValue          float64  `json:"ks_p_value"`
	KSSignificant     bool     `json:"ks_significant"`
	Wasserstein       float64  `json:"wasserstein"`
	WassersteinNorm   float64  `json:"wasserstein_normalized"`
	BaselineN         int      `json:"baseline_n"`
	CurrentN          int      `json:"current_n"`
}

// PSIBin PSI 구간별 기여도
type PSIBin struct {
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
	BaselinePct  float64 `json:"baseline_pct"`
	CurrentPct   float64 `json:"current_pct"`
	Contribution float64 `json:"contribution"`
}

// Comparator 분포 비교기
// 순수 계산만 수행한다. 숨은 상태 없음, 같은 입력이면 항상 같은 출력.
type Comparator struct {
	thresholds contracts.Thresholds
	log        zerolog.Logger
}

// NewComparator 새 비교기 생성
func NewComparator(thresholds contracts.Thresholds, log zerolog.Logger) *Comparator {
	return &Comparator{
		thresholds: thresholds,
		log:        log.With().Str("component", "drift.comparator").Logger(),
	}
}

// Compare runs PSI, KS, and normalized Wasserstein between baseline and current.
// 어느 한쪽이 비어 있으면 InsufficientDataError를 그대로 전파한다:
// 기본값으로 눙치지 않는다. 비교 자체가 무의미하기 때문.
func (c *Comparator) Compare(baseline, current []float64) (*Comparison, error) {
	if len(baseline) == 0 {
		return nil, contracts.NewInsufficientDataError("baseline", 0)
	}
	if len(current) == 0 {
		return nil, contracts.NewInsufficientDataError("current", 0)
	}

	cmp := &Comparison{
		BaselineN: len(baseline),
		CurrentN:  len(current),
	}

	cmp.PSI, cmp.PSIBins = c.psi(baseline, current)
	cmp.PSIInterpretation = contracts.InterpretPSI(cmp.PSI)

	cmp.KSStatistic = ksStatistic(baseline, current)
	cmp.KSPValue = ksPValue(cmp.KSStatistic, len(baseline), len(current))
	cmp.KSSignificant = cmp.KSPValue < c.thresholds.KSAlpha

	cmp.Wasserstein, cmp.WassersteinNorm = wasserstein(baseline, current)

	c.log.Debug().
		Float64("psi", cmp.PSI).
		Float64("ks_statistic", cmp.KSStatistic).
		Float64("ks_p_value", cmp.KSPValue).
		Float64("wasserstein", cmp.Wasserstein).
		Int("baseline_n", cmp.BaselineN).
		Int("current_n", cmp.CurrentN).
		Msg("distributions compared")

	return cmp, nil
}

// Results converts a Comparison into per-method DriftResults for the scorer.
// KS는 원시 통계량(D)을 정규화 점수로 쓴다. 이미 [0,1] 범위.
func (c *Comparator) Results(cmp *Comparison) []contracts.DriftResult {
	psiNorm := math.Min(cmp.PSI/c.thresholds.PSINormScale, 1.0)

	return []contracts.DriftResult{
		{
			Method:    contracts.MethodPSI,
			Score:     psiNorm,
			Statistic: cmp.PSI,
			Details: map[string]interface{}{
				"interpretation": cmp.PSIInterpretation,
				"bins":           cmp.PSIBins,
			},
		},
		{
			Method:    contracts.MethodKS,
			Score:     cmp.KSStatistic,
			Statistic: cmp.KSStatistic,
			Details: map[string]interface{}{
				"p_value":     cmp.KSPValue,
				"significant": cmp.KSSignificant,
			},
		},
		{
			Method:    contracts.MethodWasserstein,
			Score:     cmp.WassersteinNorm,
			Statistic: cmp.Wasserstein,
			Details: map[string]interface{}{
				"normalized": cmp.WassersteinNorm,
			},
		},
	}
}

// psi computes the Population Stability Index with quantile bins built from
// the baseline. 같은 구간 경계를 양쪽에 적용한다.
// 0 비율에는 Epsilon 바닥을 깐다. 의도된 스무딩 정책이지 에러가 아니다.
func (c *Comparator) psi(baseline, current []float64) (float64, []PSIBin) {
	edges := quantileEdges(baseline, c.thresholds.PSIBins)

	// Degenerate baseline: every quantile edge identical (zero variance).
	// current도 같은 값에 상수이면 PSI=0, 아니면 센티널로 클리핑.
	if edges[0] == edges[len(edges)-1] {
		if constantAt(current, edges[0]) {
			return 0, nil
		}
		return c.thresholds.PSIMax, nil
	}

	nBins := len(edges) - 1
	basePct := binProportions(baseline, edges)
	currPct := binProportions(current, edges)

	eps := c.thresholds.Epsilon
	var psi float64
	bins := make([]PSIBin, 0, nBins)
	for i := 0; i < nBins; i++ {
		p := basePct[i]
		q := currPct[i]
		if p == 0 {
			p = eps
		}
		if q == 0 {
			q = eps
		}
		contrib := (q - p) * math.Log(q/p)
		psi += contrib
		bins = append(bins, PSIBin{
			Low:          edges[i],
			High:         edges[i+1],
			BaselinePct:  basePct[i],
			CurrentPct:   currPct[i],
			Contribution: contrib,
		})
	}

	if psi > c.thresholds.PSIMax {
		psi = c.thresholds.PSIMax
	}
	return psi, bins
}

// quantileEdges builds bin edges at baseline quantiles. 중복 경계는 유지하되
// binProportions에서 빈 구간으로 처리된다.
func quantileEdges(data []float64, bins int) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	edges := make([]float64, bins+1)
	for i := 0; i <= bins; i++ {
		edges[i] = percentile(sorted, float64(i)/float64(bins)*100)
	}
	return edges
}

// binProportions counts sample proportions per bin. 범위 밖 값은 양 끝
// 구간으로 흡수한다 (기준 구간을 현재 분포에도 그대로 적용하기 때문).
func binProportions(data []float64, edges []float64) []float64 {
	nBins := len(edges) - 1
	counts := make([]int, nBins)

	for _, v := range data {
		idx := sort.SearchFloat64s(edges[1:len(edges)-1], v)
		counts[min(idx, nBins-1)]++
	}

	pct := make([]float64, nBins)
	n := float64(len(data))
	for i, cnt := range counts {
		pct[i] = float64(cnt) / n
	}
	return pct
}

func constantAt(data []float64, v float64) bool {
	for _, x := range data {
		if x != v {
			return false
		}
	}
	return true
}

// ksStatistic computes the two-sample Kolmogorov-Smirnov statistic
// D = max |F1(x) - F2(x)| over the merged sample.
func ksStatistic(sample1, sample2 []float64) float64 {
	s1 := make([]float64, len(sample1))
	s2 := make([]float64, len(sample2))
	copy(s1, sample1)
	copy(s2, sample2)
	sort.Float64s(s1)
	sort.Float64s(s2)

	n1, n2 := float64(len(s1)), float64(len(s2))

	i, j := 0, 0
	maxD := 0.0
	for i < len(s1) && j < len(s2) {
		d1, d2 := s1[i], s2[j]

		// Advance past ties so the CDFs are evaluated after the step.
		if d1 <= d2 {
			for i < len(s1) && s1[i] == d1 {
				i++
			}
		}
		if d2 <= d1 {
			for j < len(s2) && s2[j] == d2 {
				j++
			}
		}

		diff := math.Abs(float64(i)/n1 - float64(j)/n2)
		if diff > maxD {
			maxD = diff
		}
	}
	return maxD
}

// ksPValue computes the asymptotic two-sample p-value from the Kolmogorov
// distribution: P(D > x) ≈ 2 Σ (-1)^{k-1} exp(-2k²λ²), λ = sqrt(ne)·D.
func ksPValue(d float64, n1, n2 int) float64 {
	if d <= 0 {
		return 1.0
	}

	ne := float64(n1) * float64(n2) / float64(n1+n2)
	lambda := (math.Sqrt(ne) + 0.12 + 0.11/math.Sqrt(ne)) * d

	sum := 0.0
	for k := 1; k <= 10; k++ {
		sign := 1.0
		if k%2 == 0 {
			sign = -1.0
		}
		sum += sign * math.Exp(-2*float64(k*k)*lambda*lambda)
	}

	p := 2 * sum
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// wasserstein computes the 1-D earth-mover distance as the integral of
// |F_baseline - F_current| over the combined support, plus the same distance
// normalized by the combined range so it is comparable across feature scales.
func wasserstein(baseline, current []float64) (distance, normalized float64) {
	s1 := make([]float64, len(baseline))
	s2 := make([]float64, len(current))
	copy(s1, baseline)
	copy(s2, current)
	sort.Float64s(s1)
	sort.Float64s(s2)

	n1, n2 := float64(len(s1)), float64(len(s2))

	// Walk the merged support accumulating |F1-F2| * segment width.
	i, j := 0, 0
	var prev float64
	first := true
	for i < len(s1) || j < len(s2) {
		var x float64
		switch {
		case i >= len(s1):
			x = s2[j]
		case j >= len(s2):
			x = s1[i]
		case s1[i] <= s2[j]:
			x = s1[i]
		default:
			x = s2[j]
		}

		if !first {
			cdf1 := float64(i) / n1
			cdf2 := float64(j) / n2
			distance += math.Abs(cdf1-cdf2) * (x - prev)
		}
		first = false
		prev = x

		for i < len(s1) && s1[i] == x {
			i++
		}
		for j < len(s2) && s2[j] == x {
			j++
		}
	}

	lo := math.Min(s1[0], s2[0])
	hi := math.Max(s1[len(s1)-1], s2[len(s2)-1])
	if hi > lo {
		normalized = distance / (hi - lo)
	}
	if normalized > 1 {
		normalized = 1
	}
	return distance, normalized
}

// percentile computes the p-th percentile of sorted data (linear interpolation).
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 모표준편차 계산
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
