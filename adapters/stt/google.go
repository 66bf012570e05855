// Package stt adapts platform speech recognition. A final transcript is
// forwarded directly into the conversation coordinator without an editing
// step.
package stt

import (
	"context"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/xuanvuong/mochi/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText on Google Cloud Speech.
type GoogleSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a new Google Cloud recognizer.
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// TranscribeAudio converts a complete utterance to text.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    config.Language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript)
		}
	}
	g.logger.Info("Utterance transcribed", zap.Int("bytes", len(audioData)))
	return transcript.String(), nil
}

// InitTranscribeStreaming opens a streaming recognition session for chunked
// capture from the UI.
func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open streaming recognize: %w", err)
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return nil, err
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	return &googleStream{client: client, stream: stream, logger: g.logger}, nil
}

type googleStream struct {
	client   *speech.Client
	stream   speechpb.Speech_StreamingRecognizeClient
	logger   *zap.Logger
	gotAudio bool
}

// Stream sends one chunk of captured audio.
func (s *googleStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.gotAudio = true
	if err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: data},
	}); err != nil {
		return fmt.Errorf("failed to send audio chunk: %w", err)
	}
	return nil
}

// End closes the capture and returns the single final transcript.
func (s *googleStream) End() (string, error) {
	defer s.client.Close()

	if !s.gotAudio {
		return "", fmt.Errorf("no audio data received")
	}
	if err := s.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	var transcript strings.Builder
	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to receive recognition result: %w", err)
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript.WriteString(result.Alternatives[0].Transcript)
			}
		}
	}

	final := transcript.String()
	if final == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}
	s.logger.Info("Final transcript received", zap.Int("length", len(final)))
	return final, nil
}

func audioEncoding(name string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(name) {
	case "LINEAR16", "PCM", "":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "OGG_OPUS", "OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", name)
	}
}
