package detector

import (
	"sync"

	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// Engine evaluates a RuleSet against text. It is safe for concurrent use.
type Engine struct {
	rules RuleSet
	pool  *WorkerPool
}

// NewEngine creates an engine for the rule set. With a nil pool every rule
// runs on the calling goroutine.
func NewEngine(rules RuleSet, pool *WorkerPool) *Engine {
	return &Engine{rules: rules, pool: pool}
}

// RuleSetName returns the name of the active rule set
func (e *Engine) RuleSetName() string {
	return e.rules.Name
}

// Scan returns one finding per rule that matched at least once, in rule
// declaration order. It never fails; empty text yields an empty slice.
func (e *Engine) Scan(text string) []models.SecurityFinding {
	findings := make([]models.SecurityFinding, 0)
	if text == "" || len(e.rules.Rules) == 0 {
		return findings
	}

	canonical := text
	if e.rules.Canonicalize != nil {
		canonical = e.rules.Canonicalize(text)
	}

	counts := make([]int, len(e.rules.Rules))
	if e.pool == nil {
		for i := range e.rules.Rules {
			counts[i] = countMatches(e.rules.Rules[i], canonical)
		}
	} else {
		var wg sync.WaitGroup
		for i := range e.rules.Rules {
			i := i
			wg.Add(1)
			job := func() {
				defer wg.Done()
				counts[i] = countMatches(e.rules.Rules[i], canonical)
			}
			if !e.pool.Submit(job) {
				job()
			}
		}
		wg.Wait()
	}

	matched := make(map[models.PatternType]bool, len(counts))
	for i, n := range counts {
		if n > 0 {
			matched[e.rules.Rules[i].Type] = true
		}
	}

	for i, rule := range e.rules.Rules {
		if counts[i] == 0 {
			continue
		}
		if rule.Requires != "" && !matched[rule.Requires] {
			continue
		}
		findings = append(findings, models.SecurityFinding{
			Type:        rule.Type,
			Description: rule.Description,
			Severity:    rule.Severity,
			MatchCount:  counts[i],
		})
	}
	return findings
}

func countMatches(rule Rule, text string) int {
	return len(rule.Pattern.FindAllStringIndex(text, -1))
}
