package entities

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestTranscriptChunkAccumulation(t *testing.T) {
	transcript := NewTranscript()
	transcript.AppendUser("Xin chào")

	chunks := []string{"Xin", " chào", " bạn"}
	for _, chunk := range chunks {
		transcript.AppendAssistantChunk(chunk)
	}

	if transcript.Len() != 2 {
		t.Fatalf("Expected 2 messages (one user, one assistant), got %d", transcript.Len())
	}

	last, ok := transcript.Last()
	if !ok {
		t.Fatal("Expected a last message")
	}
	if last.Text != "Xin chào bạn" {
		t.Errorf("Expected concatenated text 'Xin chào bạn', got %q", last.Text)
	}
	if !last.IsStreaming {
		t.Error("Assistant message should still be streaming before finalize")
	}

	msg, ok := transcript.FinalizeAssistant()
	if !ok {
		t.Fatal("Expected finalize to find a streaming message")
	}
	if msg.IsStreaming {
		t.Error("Finalized message should not be streaming")
	}
	if msg.Text != "Xin chào bạn" {
		t.Errorf("Finalized text mismatch: %q", msg.Text)
	}
}

func TestTranscriptManyChunksSingleMessage(t *testing.T) {
	transcript := NewTranscript()

	var want strings.Builder
	for i := 0; i < 50; i++ {
		chunk := fmt.Sprintf("chunk-%d ", i)
		want.WriteString(chunk)
		transcript.AppendAssistantChunk(chunk)
	}

	if transcript.Len() != 1 {
		t.Fatalf("Expected exactly one assistant message for the turn, got %d", transcript.Len())
	}
	last, _ := transcript.Last()
	if last.Text != want.String() {
		t.Errorf("Final text must equal concatenation of chunks in delivery order")
	}
}

func TestTranscriptConcurrentChunksCreateOneMessage(t *testing.T) {
	transcript := NewTranscript()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transcript.AppendAssistantChunk("x")
		}()
	}
	wg.Wait()

	if transcript.Len() != 1 {
		t.Fatalf("Concurrent chunk delivery must not create more than one message, got %d", transcript.Len())
	}
	last, _ := transcript.Last()
	if len(last.Text) != 20 {
		t.Errorf("Expected all 20 chunks applied, got text of length %d", len(last.Text))
	}
}

func TestTranscriptNewTurnAfterFinalize(t *testing.T) {
	transcript := NewTranscript()

	transcript.AppendAssistantChunk("first turn")
	transcript.FinalizeAssistant()
	transcript.AppendAssistantChunk("second turn")

	if transcript.Len() != 2 {
		t.Fatalf("Chunks from a new turn must start a new message, got %d messages", transcript.Len())
	}
	last, _ := transcript.Last()
	if last.Text != "second turn" {
		t.Errorf("Expected new message text 'second turn', got %q", last.Text)
	}
}

func TestTranscriptFinalizeWithoutStreaming(t *testing.T) {
	transcript := NewTranscript()
	if _, ok := transcript.FinalizeAssistant(); ok {
		t.Error("Finalize without a streaming message should report false")
	}
}

func TestTranscriptAppendAssistantClosesStreaming(t *testing.T) {
	transcript := NewTranscript()
	transcript.AppendAssistantChunk("partial")
	transcript.AppendAssistant("Mochi đang gặp sự cố nhỏ, bạn thử lại sau nhé.")

	messages := transcript.Messages()
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].IsStreaming {
		t.Error("Interrupted streaming message should have been closed")
	}

	// The next turn must start a fresh message, not reuse the closed one.
	transcript.AppendAssistantChunk("next")
	if transcript.Len() != 3 {
		t.Errorf("Expected a fresh message for the next turn, got %d messages", transcript.Len())
	}
}

func TestTranscriptClear(t *testing.T) {
	transcript := NewTranscript()
	transcript.AppendUser("hello")
	transcript.AppendAssistantChunk("hi")
	transcript.Clear()

	if transcript.Len() != 0 {
		t.Errorf("Expected empty transcript after clear, got %d messages", transcript.Len())
	}
	// Clearing mid-stream must also reset first-chunk detection.
	transcript.AppendAssistantChunk("fresh")
	last, _ := transcript.Last()
	if last.Text != "fresh" {
		t.Errorf("Expected fresh message after clear, got %q", last.Text)
	}
}
