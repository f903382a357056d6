package classifier

import "strings"

// Verdict tokens the model is asked to answer with.
const (
	TokenUrgent    = "URGENT"
	TokenNotUrgent = "NOT_URGENT"
)

const promptTemplate = `
You are an emergency request classifier for a disaster relief app.
Your task is to determine if the following request is urgent or not urgent.

Request: "{{description}}"

Classify this as either "URGENT" or "NOT_URGENT" based on these criteria:

URGENT:
- Trapped persons or people unable to move
- Drowning or water-related emergencies
- Collapsed buildings or structural damage with people inside
- First aid or medical emergencies
- "Help us" or similar critical distress calls
- Situations where people are unable to move/evacuate
- Immediate danger to life or safety of any kind

NOT_URGENT:
- Food or water requests without immediate life threat
- Utility outages (power, water) without medical dependencies
- Information requests
- Long-term recovery needs
- Supply needs that are not immediate life-saving
- Non-emergency community support

Respond with ONLY "URGENT" or "NOT_URGENT".
`

// BuildPrompt embeds the description verbatim into the classification template.
func BuildPrompt(description string) string {
	return strings.Replace(promptTemplate, "{{description}}", description, 1)
}

// ParseVerdict reports whether the model reply marks the request urgent.
// Matching is a case-sensitive substring test on the trimmed reply, so a
// literal NOT_URGENT reply also contains URGENT and reads as urgent.
func ParseVerdict(text string) bool {
	return strings.Contains(strings.TrimSpace(text), TokenUrgent)
}
