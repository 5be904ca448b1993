package prompt

// GetDefault returns the built-in assistant system prompt
func GetDefault() string {
	return "You are a helpful assistant. Be concise and clear."
}

// TitleInstruction asks the model for a short chat title.
const TitleInstruction = `Write a short title (at most 6 words) for a conversation that starts with the user message below.
Reply with the title only: no quotes, no trailing punctuation.`
