package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/llm"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
)

// DefaultGenerationTimeout bounds a single explanation request, retries included.
const DefaultGenerationTimeout = 10 * time.Second

// GenerativeExplainer asks a language model for the explanation and falls back to
// templates. A missing field falls back for that field only; any other failure falls
// back for the whole assessment.
type GenerativeExplainer struct {
	client   llm.Client
	fallback *TemplateExplainer
	logger   *slog.Logger
	metrics  *Metrics
	currency string
	timeout  time.Duration
}

// GenerativeOption configures a GenerativeExplainer.
type GenerativeOption func(*GenerativeExplainer)

// WithGenerationTimeout overrides DefaultGenerationTimeout.
func WithGenerationTimeout(d time.Duration) GenerativeOption {
	return func(g *GenerativeExplainer) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithFallbackMetrics counts template fallbacks.
func WithFallbackMetrics(m *Metrics) GenerativeOption {
	return func(g *GenerativeExplainer) { g.metrics = m }
}

// WithExplainerLogger sets the logger used to report fallbacks.
func WithExplainerLogger(logger *slog.Logger) GenerativeOption {
	return func(g *GenerativeExplainer) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerativeExplainer wraps client, using fallback whenever generation fails.
func NewGenerativeExplainer(client llm.Client, fallback *TemplateExplainer, opts ...GenerativeOption) *GenerativeExplainer {
	if fallback == nil {
		fallback = NewTemplateExplainer("")
	}
	g := &GenerativeExplainer{
		client:   client,
		fallback: fallback,
		currency: fallback.currency,
		logger:   slog.Default(),
		timeout:  DefaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generatedExplanation struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AIExplanation  string `json:"aiExplanation"`
	Recommendation string `json:"recommendation"`
}

// Explain implements Explainer.
func (g *GenerativeExplainer) Explain(ctx context.Context, assessment model.RiskAssessment) model.Explanation {
	template := g.fallback.Explain(ctx, assessment)

	generated, err := g.generate(ctx, assessment)
	if err != nil {
		g.metrics.explanationFallback()
		g.logger.Warn("Explanation generation failed, using template",
			"stage", model.AgentReasoning,
			"merchant", assessment.Anomaly.Merchant,
			"type", assessment.Anomaly.Type,
			"error", err)
		return template
	}

	return model.Explanation{
		Title:          firstNonEmpty(generated.Title, template.Title),
		Description:    firstNonEmpty(generated.Description, template.Description),
		AIExplanation:  firstNonEmpty(generated.AIExplanation, template.AIExplanation),
		Recommendation: firstNonEmpty(generated.Recommendation, template.Recommendation),
	}
}

func (g *GenerativeExplainer) generate(ctx context.Context, assessment model.RiskAssessment) (generatedExplanation, error) {
	var out generatedExplanation

	prompt, err := g.buildPrompt(assessment)
	if err != nil {
		return out, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return out, fmt.Errorf("%w: %w", common.ErrGenerationFailed, err)
	}

	raw, err := llm.ExtractJSONObject(content)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("%w: %v", common.ErrMalformedOutput, err)
	}
	if out == (generatedExplanation{}) {
		return out, fmt.Errorf("%w: no explanation fields in response", common.ErrMalformedOutput)
	}
	return out, nil
}

func (g *GenerativeExplainer) buildPrompt(assessment model.RiskAssessment) (string, error) {
	details, err := json.Marshal(assessment.Anomaly.Details)
	if err != nil {
		return "", fmt.Errorf("failed to encode anomaly details: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a financial advisor helping users understand subscription risks.\n\n")
	b.WriteString("Analyze this subscription issue and provide a brief, clear explanation:\n\n")
	fmt.Fprintf(&b, "Type: %s\n", assessment.Anomaly.Type)
	fmt.Fprintf(&b, "Merchant: %s\n", assessment.Anomaly.Merchant)
	fmt.Fprintf(&b, "Monthly Impact: %s%s\n", g.currency, money.Format(assessment.MonthlyLoss))
	fmt.Fprintf(&b, "Yearly Impact: %s%s\n", g.currency, money.Format(assessment.YearlyLoss))
	fmt.Fprintf(&b, "Details: %s\n\n", details)
	b.WriteString(`Provide a JSON response with:
{
  "title": "Short alert title (max 50 chars)",
  "description": "One sentence describing the issue",
  "aiExplanation": "2-3 sentences explaining why this matters and the financial impact",
  "recommendation": "One actionable recommendation"
}`)
	return b.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
