package contracts

import "fmt"

// InsufficientDataError 비교 불가능한 빈 표본. 호출자에게 그대로 전파한다.
// 희소 서브그룹(MISSING_DATA)은 에러가 아니라 정상 상태라는 점에 주의.
type InsufficientDataError struct {
	Side string // "baseline" or "current"
	Rows int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s sample has %d rows", e.Side, e.Rows)
}

// NewInsufficientDataError 빈 표본 에러 생성
func NewInsufficientDataError(side string, rows int) *InsufficientDataError {
	return &InsufficientDataError{Side: side, Rows: rows}
}
