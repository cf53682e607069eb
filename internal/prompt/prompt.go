// Package prompt builds the classification request sent to the LLM.
package prompt

// SystemInstruction describes the scoring rubric and the required JSON shape.
const SystemInstruction = `You are an analyst that classifies customer pain points.

Read the pain point supplied by the user and evaluate it on five criteria:
1. Clarity - is the problem stated concretely?
2. Emotional intensity - how strongly does the author feel about it?
3. Actionability - could a product or service plausibly solve it?
4. Relatability - would many people or businesses share this problem?
5. Uniqueness - is it more than a generic complaint?

From that evaluation produce:
- "industry": the industry the pain point belongs to (for example SaaS, Healthcare, Retail, Finance, Logistics).
- "sentiment": the dominant sentiment of the author (for example Frustration, Anger, Confusion, Disappointment, Neutral).
- "confidenceScore": an integer from 0 to 100 expressing how confident you are that this is a real, valuable pain point.
  0-30 means low confidence, 31-69 medium confidence, 70-100 high confidence.
- "confidenceExplanation": one or two sentences justifying the score with reference to the criteria.

Respond ONLY with a JSON object containing exactly these four fields:
{"industry": "...", "sentiment": "...", "confidenceScore": 0, "confidenceExplanation": "..."}`

// Messages is the two-message instruction set sent to a chat model.
type Messages struct {
	System string
	User   string
}

// Build returns the instruction set for a single pain point. The user message
// carries the raw text only.
func Build(text string) Messages {
	return Messages{
		System: SystemInstruction,
		User:   text,
	}
}
