package entities

import "sync"

// Transcript is the ordered, append-only conversation log for the current
// subject. The only in-place mutation allowed is appending chunk text to the
// last message while it is streaming. All methods are safe for concurrent use;
// chunk application is serialized by the internal mutex so two back-to-back
// chunks can never both take the first-chunk path.
type Transcript struct {
	mu        sync.Mutex
	messages  []ChatMessage
	streaming int // index of the streaming assistant message, -1 when none
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{streaming: -1}
}

// AppendUser appends a completed user message.
func (t *Transcript) AppendUser(text string) ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := ChatMessage{Speaker: SpeakerUser, Text: text}
	t.messages = append(t.messages, msg)
	return msg
}

// AppendAssistantChunk applies one incremental chunk of the assistant's reply.
// The first chunk of a turn creates a new streaming message; every later chunk
// appends to that same message's text verbatim, in delivery order.
func (t *Transcript) AppendAssistantChunk(chunk string) ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streaming == -1 {
		t.streaming = len(t.messages)
		t.messages = append(t.messages, ChatMessage{
			Speaker:     SpeakerMochi,
			Text:        chunk,
			IsStreaming: true,
		})
	} else {
		t.messages[t.streaming].Text += chunk
	}
	return t.messages[t.streaming]
}

// FinalizeAssistant marks the streaming assistant message complete. It is a
// no-op when no message is streaming (a turn may complete without chunks).
func (t *Transcript) FinalizeAssistant() (ChatMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streaming == -1 {
		return ChatMessage{}, false
	}
	t.messages[t.streaming].IsStreaming = false
	msg := t.messages[t.streaming]
	t.streaming = -1
	return msg, true
}

// AppendAssistant appends a completed assistant message, such as an apology
// shown when a turn fails.
func (t *Transcript) AppendAssistant(text string) ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	// A failed stream leaves no message half-open.
	if t.streaming != -1 {
		t.messages[t.streaming].IsStreaming = false
		t.streaming = -1
	}
	msg := ChatMessage{Speaker: SpeakerMochi, Text: text}
	t.messages = append(t.messages, msg)
	return msg
}

// Clear discards all messages, used when the learner switches subject.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.streaming = -1
}

// Messages returns a snapshot copy of the transcript.
func (t *Transcript) Messages() []ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (ChatMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return ChatMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
