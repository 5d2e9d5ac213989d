package analysis

import "fmt"

const (
	chunkSummaryTokens = 300
	finalSummaryTokens = 400
	actionTokens       = 300
)

// Fallback sentences substituted for failed completion calls.
const (
	NoMaterialContent  = "No material content in this section."
	NoSummaryAvailable = "No summary available."
	AdministrativeOnly = "Administrative notice only — no compliance impact."
	AdministrativeNote = "Administrative circular — no compliance action required."
)

func chunkSummaryPrompt(part int, title, chunk string) string {
	return fmt.Sprintf(`You are a compliance assistant.
Summarize PART %d of the notification titled '%s'.

Rules:
- Always produce a factual executive summary (max 120 words).
- Never refuse, never ask for more content.
- If the section is only headers or addresses, respond: "%s"
- If it is about bid/tender/meeting dates, highlight the key event and deadline.

Text:
%s
`, part, title, AdministrativeOnly, chunk)
}

func complianceSynthesisPrompt(title, combined string) string {
	return fmt.Sprintf(`Combine the following partial summaries into one coherent executive summary (<200 words)
for the notification '%s'.

Ensure the output is factual, concise, and clearly reflects any regulatory obligations or compliance requirements.

Summaries:
%s
`, title, combined)
}

func administrativeSynthesisPrompt(title, combined string) string {
	return fmt.Sprintf(`Combine the following partial summaries into one coherent executive summary (<200 words)
for the notification '%s'.

Ensure the output is factual, concise, and never empty.
If no compliance actions or obligations are identified across all parts, and the content is purely administrative (headers, dates, addresses, acknowledgements), state:
"%s"
Otherwise, summarize the key regulatory changes and obligations.

Summaries:
%s
`, title, AdministrativeNote, combined)
}

func actionPrompt(part int, title, chunk string) string {
	return fmt.Sprintf(`Extract compliance action points from PART %d of '%s'.

Return strictly a JSON array of objects with keys:
function, task, due_by, references.

Rules:
- If no compliance action, return [].
- Do not generate explanations or meta text.
- Focus only on concrete obligations for banks, ADs, or financial institutions.

Text:
%s
`, part, title, chunk)
}
