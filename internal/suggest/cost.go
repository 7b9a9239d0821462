package suggest

import (
	"fmt"
	"strings"

	"github.com/aidebug/aidebug/internal/providers"
)

// price is USD per 1000 tokens.
type price struct {
	Input  float64
	Output float64
}

var prices = map[string]price{
	"gpt-4o-mini":       {Input: 0.00015, Output: 0.0006},
	"gpt-4o":            {Input: 0.0025, Output: 0.01},
	"gpt-4":             {Input: 0.03, Output: 0.06},
	"gpt-4-32k":         {Input: 0.06, Output: 0.12},
	"gpt-3.5-turbo":     {Input: 0.0015, Output: 0.002},
	"gpt-3.5-turbo-16k": {Input: 0.003, Output: 0.004},
}

// Estimate is the expected size and cost of a request before it is sent.
type Estimate struct {
	InputTokens     int     `json:"inputTokens"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Priced          bool    `json:"priced"`
	InputCost       float64 `json:"inputCost,omitempty"`
	OutputCost      float64 `json:"outputCost,omitempty"`
}

// EstimateTokens approximates the token count of messages at four
// characters per token.
func EstimateTokens(msgs []providers.Message) int {
	chars := 0
	for _, m := range msgs {
		chars += len(m.Content)
	}
	return (chars + 3) / 4
}

// EstimateCost estimates tokens for msgs and, for models with a known price,
// the cost of the input and of maxOutput output tokens.
func EstimateCost(msgs []providers.Message, model string, maxOutput int) Estimate {
	est := Estimate{InputTokens: EstimateTokens(msgs), MaxOutputTokens: maxOutput}
	p, ok := prices[strings.ToLower(model)]
	if !ok {
		return est
	}
	est.Priced = true
	est.InputCost = p.Input * float64(est.InputTokens) / 1000
	est.OutputCost = p.Output * float64(maxOutput) / 1000
	return est
}

// String formats the estimate for a confirmation prompt.
func (e Estimate) String() string {
	if !e.Priced {
		return fmt.Sprintf("~%d input tokens (no price data for this model)", e.InputTokens)
	}
	return fmt.Sprintf("~%d input tokens, input cost $%.4f, max output cost $%.4f",
		e.InputTokens, e.InputCost, e.OutputCost)
}
