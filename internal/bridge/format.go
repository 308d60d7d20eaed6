package bridge

import "strings"

// maxMessageLen is the chunk size for outbound messages. Discord caps
// messages at 2000 characters; Slack allows more, so one limit fits
// both.
const maxMessageLen = 2000

// chunkMessage splits text into pieces of at most maxLen characters,
// preferring to break at newlines, then at spaces.
func chunkMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxLen {
		cut := strings.LastIndex(text[:maxLen], "\n")
		if cut <= 0 {
			cut = strings.LastIndex(text[:maxLen], " ")
		}
		if cut <= 0 {
			cut = maxLen
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n "))
		text = strings.TrimLeft(text[cut:], "\n ")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
