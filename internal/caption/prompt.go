package caption

import (
	"fmt"
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("caption").Parse(
	`You are a next-gen meme creator. Your task is to create a funny Hinglish meme with a PREMISE and a witty PUNCHLINE about "{{.Topic}}"{{if .Context}} in the context of "{{.Context}}"{{end}}.
- Use Hinglish (mix of Hindi + English).
- Make it witty, sarcastic, and clever (avoid basic normie jokes).
- Use wordplay, double meaning, or relatable Gen-Z humor.
- Structure:
   1. Premise (setup situation, relatable or exaggerated)
   2. Punchline (twist, witty comeback, or funny irony)
   3. Final meme caption (short & punchy).

Example format:
Premise: "Exam hall me sab log serious baithe hai"
Punchline: "Aur main ekdum CID waale Tarika se dekh raha hu, 'kuch toh gadbad hai'"
Caption: "POV: Tumhare 2 number bhi nikal jaaye toh miracle hai"

Create a similar meme about "{{.Topic}}"{{if .Context}} in "{{.Context}}" context{{end}}.
`))

type promptData struct {
	Topic   string
	Context string
}

// BuildPrompt renders the caption prompt for topic and an optional context.
func BuildPrompt(topic, memeContext string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("caption: topic is empty")
	}
	var sb strings.Builder
	data := promptData{Topic: topic, Context: strings.TrimSpace(memeContext)}
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("caption: render prompt: %w", err)
	}
	return sb.String(), nil
}
