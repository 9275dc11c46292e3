// Package speech wraps the speech endpoints with busy flags.
package speech

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
)

// TranscriptionFailedText is appended to the input when transcription fails.
const TranscriptionFailedText = "Error transcribing audio."

// ErrBusy is returned when a request of the same kind is still running.
var ErrBusy = errors.New("speech request already running")

// InputSink receives transcribed text.
type InputSink interface {
	AppendInput(text string)
}

// Recognizer turns recorded audio into input text.
type Recognizer struct {
	backend api.Backend
	log     *zap.Logger
	busy    atomic.Bool
}

func NewRecognizer(backend api.Backend, log *zap.Logger) *Recognizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recognizer{backend: backend, log: log}
}

// Transcribe uploads audio and appends the recognized text to sink. On
// failure TranscriptionFailedText is appended instead and the error returned.
func (r *Recognizer) Transcribe(ctx context.Context, fileName string, audio []byte, sink InputSink) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.busy.Store(false)

	text, err := r.backend.SpeechToText(ctx, fileName, audio)
	if err != nil {
		r.log.Error("speech to text failed", zap.String("file", fileName), zap.Error(err))
		sink.AppendInput(TranscriptionFailedText)
		return err
	}
	sink.AppendInput(text)
	return nil
}

// Busy reports whether a transcription is running.
func (r *Recognizer) Busy() bool { return r.busy.Load() }

// Synthesizer turns a transcript entry into playable audio.
type Synthesizer struct {
	backend api.Backend
	log     *zap.Logger
	busy    atomic.Bool
}

func NewSynthesizer(backend api.Backend, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{backend: backend, log: log}
}

// Synthesize returns the audio for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	audio, err := s.backend.TextToSpeech(ctx, text)
	if err != nil {
		s.log.Error("text to speech failed", zap.Error(err))
		return nil, err
	}
	return audio, nil
}

// Busy reports whether a synthesis is running.
func (s *Synthesizer) Busy() bool { return s.busy.Load() }
