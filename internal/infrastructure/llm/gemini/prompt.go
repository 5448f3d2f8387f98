package gemini

func buildMetadataPrompt(text string) string {
	return `You are cataloguing sermon transcripts.
From the document below extract the date, the speaker, the title, the primary theme, and every
scripture reference in canonical form (for example "John 3:16" or "Romans 8:28-30").
Return a strict JSON object with exactly these keys:
date (string), speaker (string), title (string), theme (string), references (array of strings).
Use an empty string or empty array when a value is not present.
No prose, no markdown, no code fences.

Document:
` + text
}
