package screening

import (
	"context"
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Screener runs every rule against one company and persists the result
// ⭐ SSOT: 품질 스크리닝 오케스트레이션은 여기서만
type Screener struct {
	repo       contracts.ScreeningRepository
	filings    contracts.FilingStatusProvider // optional
	news       contracts.NewsProvider         // optional
	cfg        scoringconfig.Config
	evaluators []Evaluator
	logger     *logger.Logger
}

// NewScreener creates a Screener with the default rule set
func NewScreener(
	repo contracts.ScreeningRepository,
	filings contracts.FilingStatusProvider,
	news contracts.NewsProvider,
	cfg scoringconfig.Config,
	log *logger.Logger,
) *Screener {
	return &Screener{
		repo:       repo,
		filings:    filings,
		news:       news,
		cfg:        cfg,
		evaluators: DefaultEvaluators(cfg),
		logger:     log.WithField("module", "screening"),
	}
}

// WithEvaluators replaces the rule set (tests, partial screens)
func (s *Screener) WithEvaluators(evaluators ...Evaluator) *Screener {
	s.evaluators = evaluators
	return s
}

// Config returns the scoring configuration in use
func (s *Screener) Config() scoringconfig.Config {
	return s.cfg
}

// Screen loads, evaluates and persists one company.
// 저장 실패 시 계산된 결과와 ErrPersist 를 함께 반환
func (s *Screener) Screen(ctx context.Context, companyID int64) (*contracts.ScreeningResult, error) {
	snapshot, err := s.repo.LoadSnapshot(ctx, companyID)
	if err != nil {
		s.logger.WithError(err).WithField("company_id", companyID).Error("Failed to load company snapshot")
		return nil, fmt.Errorf("%w: company %d: %w", ErrSnapshotLoad, companyID, err)
	}

	log := s.logger.WithCompany(snapshot.ID, snapshot.Symbol)

	in := Input{
		Snapshot: snapshot,
		History:  s.loadHistory(ctx, snapshot, log),
		Filings:  s.loadFilings(ctx, snapshot, log),
		News:     s.loadNews(ctx, snapshot, log),
	}

	result, err := s.Evaluate(in)
	if err != nil {
		log.WithError(err).Error("Failed to score company")
		return nil, err
	}

	if err := s.repo.SaveResult(ctx, result); err != nil {
		log.WithError(err).Error("Failed to save screening result")
		return result, fmt.Errorf("%w: company %d: %w", ErrPersist, companyID, err)
	}

	log.WithFields(map[string]interface{}{
		"score":        result.QualityScore,
		"red_flags":    len(result.Findings),
		"disqualified": result.Disqualified,
	}).Info("Quality screening completed")

	return result, nil
}

// Evaluate runs the rule pass and the aggregator without any I/O
func (s *Screener) Evaluate(in Input) (*contracts.ScreeningResult, error) {
	if in.History == nil {
		in.History = &contracts.FinancialHistory{}
	}

	snapshot := in.Snapshot
	log := s.logger.WithCompany(snapshot.ID, snapshot.Symbol)

	result := &contracts.ScreeningResult{
		CompanyID: snapshot.ID,
		Symbol:    snapshot.Symbol,
		Findings:  []contracts.Finding{},
		Details:   make(map[contracts.RuleName]contracts.RuleDetail, len(s.evaluators)),
	}
	corporateActionPenalty := 0

	// 룰은 순차 실행 (표시 순서 = 실행 순서)
	for _, ev := range s.evaluators {
		rule := ev.Rule()

		in.Prior = result.Findings
		outcome, err := runEvaluator(ev, in)
		if err != nil {
			log.WithError(err).WithField("rule", string(rule)).Error("Rule evaluator failed")
			result.Details[rule] = contracts.EvaluatorFailure{Error: err.Error()}
			continue
		}

		result.Findings = append(result.Findings, outcome.Findings...)

		switch rule {
		case contracts.RuleFilingRecency:
			if outcome.Disqualified {
				result.Disqualified = true
				log.Warn("Company disqualified due to missing SEC filings")
			}
		case contracts.RuleCorporateAction:
			corporateActionPenalty = outcome.CorporateActionPenalty
		}

		if outcome.Detail != nil {
			result.Details[rule] = outcome.Detail
		}
	}

	score, err := Aggregate(result.Findings, corporateActionPenalty, s.cfg)
	if err != nil {
		return nil, err
	}
	result.QualityScore = score

	log.WithField("score", score).Debug("Quality score calculated")

	return result, nil
}

// runEvaluator converts a panicking rule into an error
func runEvaluator(ev Evaluator, in Input) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{}
			err = fmt.Errorf("rule %s panicked: %v", ev.Rule(), r)
		}
	}()
	return ev.Evaluate(in)
}

func (s *Screener) loadHistory(ctx context.Context, snapshot *contracts.CompanySnapshot, log *logger.Logger) *contracts.FinancialHistory {
	history, err := s.repo.LoadHistory(ctx, snapshot.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to load financial history, trend rules abstain")
		return &contracts.FinancialHistory{}
	}
	if history == nil {
		return &contracts.FinancialHistory{}
	}
	return history
}

func (s *Screener) loadFilings(ctx context.Context, snapshot *contracts.CompanySnapshot, log *logger.Logger) contracts.FilingStatus {
	if s.filings == nil {
		return nil
	}
	status, err := s.filings.RecentFilings(ctx, snapshot.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to load filing status, filing rule abstains")
		return nil
	}
	return status
}

func (s *Screener) loadNews(ctx context.Context, snapshot *contracts.CompanySnapshot, log *logger.Logger) []contracts.NewsRedFlag {
	if s.news == nil {
		return nil
	}
	items, err := s.news.RedFlagNews(ctx, snapshot.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to load news red flags")
		return nil
	}
	return items
}
