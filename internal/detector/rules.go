// Package detector screens normalized OCR text for embedded secrets.
package detector

import (
	"regexp"
	"strings"

	"github.com/anime-shed/codeshot-scanner/pkg/models"
)

// Rule is a single lexical detector
type Rule struct {
	Type        models.PatternType
	Description string
	Severity    models.Severity
	Pattern     *regexp.Regexp

	// Requires suppresses the rule unless a finding of this type was also produced
	Requires models.PatternType
}

// RuleSet is an ordered list of rules plus the canonicalisation applied to
// the text before any rule runs. Findings keep the declaration order.
type RuleSet struct {
	Name         string
	Canonicalize func(string) string
	Rules        []Rule
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	quoteStripper = strings.NewReplacer(
		`'`, "", `"`, "", "`", "",
		"‘", "", "’", "", "“", "", "”", "",
	)
)

// CanonicalizeLoose lower-cases the text, strips straight and typographic
// quotes and collapses whitespace runs so rules need not anchor on quoting.
func CanonicalizeLoose(text string) string {
	text = strings.ToLower(text)
	text = quoteStripper.Replace(text)
	return whitespaceRun.ReplaceAllString(text, " ")
}

// HeuristicRules is the primary rule set. All findings are Critical.
func HeuristicRules() RuleSet {
	return RuleSet{
		Name:         "heuristic",
		Canonicalize: CanonicalizeLoose,
		Rules: []Rule{
			{
				Type:        models.PatternAWSAccessKey,
				Description: "Found AWS Access Key ID",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`akia[0-9a-z]{16}`),
			},
			{
				Type:        models.PatternDatabase,
				Description: "Found database connection string with credentials",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`(mongodb|mysql|postgresql|postgres)://[^@\s]+@[^\s]+`),
			},
			{
				Type:        models.PatternPassword,
				Description: "Found potential hardcoded password or secret",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`(password|passwd|pwd|secret)\s*[=:]\s*\S{8,}`),
			},
			{
				Type:        models.PatternPrivateKey,
				Description: "Found private key",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`begin\s*(rsa|dsa|ec|openssh)\s*private\s*key`),
			},
			{
				// the keyword must touch the operator: "api_key = x" is not flagged
				Type:        models.PatternAPIKey,
				Description: "Found API key or token",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`(api.?key|api.?token|auth.?token|access.?token)[=:]\s*[a-z0-9_\-]{20,}`),
			},
			{
				Type:        models.PatternEnvSecret,
				Description: "Found reference to secret in environment variables",
				Severity:    models.SeverityCritical,
				Pattern:     regexp.MustCompile(`(process\.env\.|dotenv|config\[|os\.getenv\(|os\.environ\[|os\.environ\.get\()[a-z_]*secret[a-z_]*`),
			},
		},
	}
}

// StrictRules is the quote-anchored alternative. It runs on the normalized
// text as-is and grades findings High, Medium or Low.
func StrictRules() RuleSet {
	return RuleSet{
		Name:         "strict",
		Canonicalize: func(s string) string { return s },
		Rules: []Rule{
			{
				Type:        models.PatternAWSAccessKey,
				Description: "Found potential AWS Access Key ID",
				Severity:    models.SeverityHigh,
				Pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			},
			{
				Type:        models.PatternAWSSecretKey,
				Description: "Found potential AWS Secret Access Key",
				Severity:    models.SeverityHigh,
				Pattern:     regexp.MustCompile(`[0-9a-zA-Z/+]{40}`),
				Requires:    models.PatternAWSAccessKey,
			},
			{
				Type:        models.PatternAPIKeyToken,
				Description: "Found potential API key or token",
				Severity:    models.SeverityHigh,
				Pattern: regexp.MustCompile("(?i)['\"`](api[-_]?key|api[-_]?token|app[-_]?key|app[-_]?token|auth[-_]?token|access[-_]?token|secret[-_]?key)['\"`]" +
					"\\s*[:=]\\s*['\"`][0-9a-zA-Z_\\-]{20,}['\"`]"),
			},
			{
				Type:        models.PatternPassword,
				Description: "Found hardcoded password or secret",
				Severity:    models.SeverityHigh,
				Pattern:     regexp.MustCompile("(?i)['\"`](password|passwd|pwd|secret)['\"`]\\s*[:=]\\s*['\"`][^'\"`]+['\"`]"),
			},
			{
				Type:        models.PatternDatabase,
				Description: "Found database connection string with credentials",
				Severity:    models.SeverityHigh,
				Pattern:     regexp.MustCompile(`(?i)(mongodb|mysql|postgresql|postgres)://[^:]+:[^@]+@[^/]+`),
			},
			{
				Type:        models.PatternIPAddress,
				Description: "Found hardcoded IP address",
				Severity:    models.SeverityMedium,
				Pattern:     regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
			},
			{
				Type:        models.PatternEmailAddress,
				Description: "Found email address",
				Severity:    models.SeverityLow,
				Pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			},
		},
	}
}
