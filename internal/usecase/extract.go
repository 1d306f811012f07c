package usecase

import (
	"fmt"

	"httparity/internal/domain"
)

// ExtractService filters collaborator log observations by correlation id.
// Extraction failures are fatal to a test case: they mean a request was
// lost, duplicated, or the instrumentation is broken.
type ExtractService struct{}

func NewExtractService() *ExtractService { return &ExtractService{} }

// ForID returns all observations matching id, in file order.
func (s *ExtractService) ForID(src LogSource, id string) ([]domain.Observation, error) {
	all, err := src.Observations()
	if err != nil {
		return nil, err
	}
	var out []domain.Observation
	for _, o := range all {
		if o.CorrelationID == id {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrNotFound, id)
	}
	return out, nil
}

// ForIDCount is ForID with a hard count assertion. A mismatch is never
// truncated or skipped.
func (s *ExtractService) ForIDCount(src LogSource, id string, expected int) ([]domain.Observation, error) {
	out, err := s.ForID(src, id)
	if err != nil {
		return nil, err
	}
	if len(out) != expected {
		return nil, fmt.Errorf("%w: id=%s want=%d got=%d", domain.ErrCountMismatch, id, expected, len(out))
	}
	return out, nil
}

// SelectRange picks the first Range-carrying observation of an
// interrupt-and-resume flow. The flow must also contain at least one
// initial (non-Range) request.
func (s *ExtractService) SelectRange(obs []domain.Observation) (domain.Observation, error) {
	var chosen *domain.Observation
	sawPlain := false
	for i := range obs {
		if obs[i].HasRange() {
			if chosen == nil {
				chosen = &obs[i]
			}
		} else {
			sawPlain = true
		}
	}
	if chosen == nil {
		return domain.Observation{}, fmt.Errorf("%w: no range request observed", domain.ErrNotFound)
	}
	if !sawPlain {
		return domain.Observation{}, fmt.Errorf("%w: no initial non-range request observed", domain.ErrNotFound)
	}
	return *chosen, nil
}
