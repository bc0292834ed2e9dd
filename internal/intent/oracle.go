package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/frontdesk/internal/anthropic"
)

const oracleSystemPrompt = `You classify the intent of a caller speaking to the automated receptionist of a small professional-services firm. The text is a speech transcript and may contain disfluencies.

Respond with ONLY a JSON object, no prose:
{"label": "<label>", "confidence": <0.0-1.0>}

label must be exactly one of:
- "appointment" — the caller wants to book or schedule a consultation
- "message" — the caller wants to leave a message for the office
- "speak_to_person" — the caller asks for a human, a transfer, or a specific person
- "unclear" — none of the above fits`

// AnthropicOracle implements Oracle over the Anthropic Messages API.
type AnthropicOracle struct {
	llm *anthropic.Client
}

func NewAnthropicOracle(llm *anthropic.Client) *AnthropicOracle {
	return &AnthropicOracle{llm: llm}
}

type oracleAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (o *AnthropicOracle) Classify(ctx context.Context, utterance string) (string, float64, error) {
	raw, err := o.llm.Complete(ctx, oracleSystemPrompt, utterance, 64)
	if err != nil {
		return "", 0, fmt.Errorf("oracle completion: %w", err)
	}

	// Models occasionally wrap JSON in fences despite instructions.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var ans oracleAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ans); err != nil {
		return "", 0, fmt.Errorf("parse oracle answer %q: %w", raw, err)
	}
	return ans.Label, ans.Confidence, nil
}
