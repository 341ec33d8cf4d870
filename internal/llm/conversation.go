package llm

// TrimHistory keeps the leading system message (if any) plus the most
// recent maxMessages-1 messages, dropping older turns from the middle.
// Mirrors the drop-oldest-until-it-fits shape of wingthing's
// thread.RenderWithBudget, generalized from a character budget to a
// message-count budget (spec.md §4.3: "leading system message + last N-1
// messages").
func TrimHistory(messages []Message, maxMessages int) []Message {
	if maxMessages <= 0 || len(messages) <= maxMessages {
		return messages
	}

	var system *Message
	rest := messages
	if messages[0].Role == RoleSystem {
		system = &messages[0]
		rest = messages[1:]
	}

	budget := maxMessages
	if system != nil {
		budget--
	}
	if budget < 0 {
		budget = 0
	}
	if len(rest) > budget {
		rest = rest[len(rest)-budget:]
	}

	if system == nil {
		return rest
	}
	trimmed := make([]Message, 0, len(rest)+1)
	trimmed = append(trimmed, *system)
	trimmed = append(trimmed, rest...)
	return trimmed
}
