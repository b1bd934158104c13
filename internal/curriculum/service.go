package curriculum

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// MaxOutcomes caps OutcomesForGrade.
	MaxOutcomes = 20

	// MaxSearchResults caps Search.
	MaxSearchResults = 10
)

// Service answers outcome queries from a table loaded once on first use.
// It is safe for concurrent use.
type Service struct {
	loader Loader
	logger *zap.Logger

	once     sync.Once
	outcomes []Outcome
	byGrade  map[string][]Outcome
	grades   []string
}

// NewService creates a Service over loader.
func NewService(loader Loader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, logger: logger}
}

// load populates the table. A failed load falls back to the built-in
// outcomes so callers always get grounding context.
func (s *Service) load(ctx context.Context) {
	s.once.Do(func() {
		outcomes, err := s.loader.Load(ctx)
		if err != nil {
			s.logger.Warn("curriculum load failed, using fallback outcomes", zap.Error(err))
			outcomes = fallbackOutcomes
		}
		s.outcomes = outcomes
		s.byGrade = make(map[string][]Outcome)
		for _, o := range outcomes {
			if _, ok := s.byGrade[o.Grade]; !ok {
				s.grades = append(s.grades, o.Grade)
			}
			s.byGrade[o.Grade] = append(s.byGrade[o.Grade], o)
		}
		s.logger.Debug("curriculum loaded", zap.Int("outcomes", len(outcomes)), zap.Int("grades", len(s.grades)))
	})
}

// OutcomesForGrade returns up to MaxOutcomes outcomes for grade. A
// non-empty topicFilter keeps outcomes whose description or category
// contains it; if nothing matches, the unfiltered grade list is returned.
func (s *Service) OutcomesForGrade(ctx context.Context, grade, topicFilter string) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.load(ctx)

	all := s.byGrade[NormalizeGrade(grade)]
	if f := strings.ToLower(strings.TrimSpace(topicFilter)); f != "" {
		var filtered []Outcome
		for _, o := range all {
			if containsFold(o.Description, f) || containsFold(o.Category, f) {
				filtered = append(filtered, o)
			}
		}
		if len(filtered) > 0 {
			all = filtered
		}
	}
	return capped(all, MaxOutcomes), nil
}

// Search matches query against outcome IDs, descriptions and categories,
// optionally restricted to grade. At most MaxSearchResults are returned.
func (s *Service) Search(ctx context.Context, query, grade string) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.load(ctx)

	q := strings.ToLower(strings.TrimSpace(query))
	g := NormalizeGrade(grade)

	var out []Outcome
	for _, o := range s.outcomes {
		if g != "" && o.Grade != g {
			continue
		}
		if containsFold(o.ID, q) || containsFold(o.Description, q) || containsFold(o.Category, q) {
			out = append(out, o)
			if len(out) == MaxSearchResults {
				break
			}
		}
	}
	return out, nil
}

// Grades lists grade codes in table order.
func (s *Service) Grades(ctx context.Context) []string {
	s.load(ctx)
	return slices.Clone(s.grades)
}

func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func capped(in []Outcome, n int) []Outcome {
	if len(in) > n {
		in = in[:n]
	}
	return slices.Clone(in)
}
