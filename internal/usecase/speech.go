package usecase

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
	"github.com/fairyhunter13/ai-interview-tutor/pkg/textx"
)

// SpeechQueue accepts background playback jobs.
type SpeechQueue interface {
	Enqueue(text, voice string) (string, error)
}

// SpeechService wraps text-to-speech, transcription and the playback queue.
type SpeechService struct {
	Synth       domain.SpeechSynthesizer
	Transcriber domain.Transcriber
	Queue       SpeechQueue
}

// NewSpeechService constructs a SpeechService.
func NewSpeechService(synth domain.SpeechSynthesizer, tr domain.Transcriber, q SpeechQueue) SpeechService {
	return SpeechService{Synth: synth, Transcriber: tr, Queue: q}
}

// Synthesize returns encoded audio for text.
func (s SpeechService) Synthesize(ctx domain.Context, text, voice string) ([]byte, error) {
	ctx, span := otel.Tracer("usecase.speech").Start(ctx, "SpeechService.Synthesize")
	defer span.End()

	text = textx.SanitizeText(text)
	if text == "" {
		return nil, fmt.Errorf("op=speech.synthesize: %w: text is required", domain.ErrInvalidArgument)
	}
	audio, err := s.Synth.Synthesize(ctx, text, strings.TrimSpace(voice))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("op=speech.synthesize: %w", err)
	}
	return audio, nil
}

// Say queues text for background playback and returns the job id.
func (s SpeechService) Say(_ domain.Context, text, voice string) (string, error) {
	id, err := s.Queue.Enqueue(textx.SanitizeText(text), strings.TrimSpace(voice))
	if err != nil {
		return "", fmt.Errorf("op=speech.say: %w", err)
	}
	return id, nil
}

// Transcribe converts uploaded audio to text.
func (s SpeechService) Transcribe(ctx domain.Context, fileName string, audio []byte) (string, error) {
	ctx, span := otel.Tracer("usecase.speech").Start(ctx, "SpeechService.Transcribe")
	defer span.End()

	if len(audio) == 0 {
		return "", fmt.Errorf("op=speech.transcribe: %w: empty audio", domain.ErrInvalidArgument)
	}
	text, err := s.Transcriber.Transcribe(ctx, fileName, audio)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("op=speech.transcribe: %w", err)
	}
	return strings.TrimSpace(text), nil
}
