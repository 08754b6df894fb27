package strategy

import (
	"fmt"
	"sync"

	"github.com/anime-shed/codeshot-scanner/internal/detector"
	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// DetectionStrategy defines the interface for different rule sets
type DetectionStrategy interface {
	Detect(text string) []models.SecurityFinding
	GetStrategyName() string
}

// HeuristicDetectionStrategy runs the quote-agnostic primary rule set
type HeuristicDetectionStrategy struct {
	engine *detector.Engine
}

// NewHeuristicDetectionStrategy creates the primary strategy; pool may be nil
func NewHeuristicDetectionStrategy(pool *detector.WorkerPool) DetectionStrategy {
	return &HeuristicDetectionStrategy{
		engine: detector.NewEngine(detector.HeuristicRules(), pool),
	}
}

// Detect scans text with the heuristic rules
func (s *HeuristicDetectionStrategy) Detect(text string) []models.SecurityFinding {
	return s.engine.Scan(text)
}

// GetStrategyName returns the strategy name
func (s *HeuristicDetectionStrategy) GetStrategyName() string {
	return s.engine.RuleSetName()
}

// StrictDetectionStrategy runs the quote-anchored rule set
type StrictDetectionStrategy struct {
	engine *detector.Engine
}

// NewStrictDetectionStrategy creates the strict strategy; pool may be nil
func NewStrictDetectionStrategy(pool *detector.WorkerPool) DetectionStrategy {
	return &StrictDetectionStrategy{
		engine: detector.NewEngine(detector.StrictRules(), pool),
	}
}

// Detect scans text with the strict rules
func (s *StrictDetectionStrategy) Detect(text string) []models.SecurityFinding {
	return s.engine.Scan(text)
}

// GetStrategyName returns the strategy name
func (s *StrictDetectionStrategy) GetStrategyName() string {
	return s.engine.RuleSetName()
}

// NewDetectionStrategy resolves a mode name to a strategy
func NewDetectionStrategy(mode string, pool *detector.WorkerPool) (DetectionStrategy, error) {
	switch mode {
	case "", "heuristic":
		return NewHeuristicDetectionStrategy(pool), nil
	case "strict":
		return NewStrictDetectionStrategy(pool), nil
	default:
		return nil, fmt.Errorf("unknown detection mode: %q", mode)
	}
}

// DetectionContext manages the detection strategy. It is safe to swap the
// strategy while scans are running.
type DetectionContext struct {
	mu       sync.RWMutex
	strategy DetectionStrategy
}

// NewDetectionContext creates a new detection context
func NewDetectionContext(strategy DetectionStrategy) *DetectionContext {
	return &DetectionContext{
		strategy: strategy,
	}
}

// SetStrategy changes the detection strategy
func (c *DetectionContext) SetStrategy(strategy DetectionStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategy = strategy
}

// ExecuteDetection scans text using the current strategy
func (c *DetectionContext) ExecuteDetection(text string) []models.SecurityFinding {
	c.mu.RLock()
	s := c.strategy
	c.mu.RUnlock()
	return s.Detect(text)
}

// GetCurrentStrategy returns the current strategy name
func (c *DetectionContext) GetCurrentStrategy() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy.GetStrategyName()
}
