package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// ErrNoSpeech means the audio was processed but nothing intelligible came back.
var ErrNoSpeech = errors.New("no speech recognized")

type Options struct {
	Language        string // e.g. "en-US"
	SampleRate      int    // <=0 => 16000
	CredentialsFile string // empty => application default credentials
}

type Transcriber struct {
	client     *speech.Client
	language   string
	sampleRate int
}

func NewTranscriber(ctx context.Context, opt Options) (*Transcriber, error) {
	if opt.Language == "" {
		opt.Language = "en-US"
	}
	if opt.SampleRate <= 0 {
		opt.SampleRate = 16000
	}

	var copts []option.ClientOption
	if opt.CredentialsFile != "" {
		copts = append(copts, option.WithCredentialsFile(opt.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &Transcriber{
		client:     client,
		language:   opt.Language,
		sampleRate: opt.SampleRate,
	}, nil
}

func (t *Transcriber) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}

// Transcribe sends one utterance of mono PCM and returns the joined best
// alternatives. Empty audio or an empty result is ErrNoSpeech.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	if len(pcm) == 0 {
		return "", ErrNoSpeech
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(t.sampleRate),
			LanguageCode:    t.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: EncodeLinear16(pcm),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	text := joinTranscripts(resp.GetResults())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// EncodeLinear16 lays samples out as little-endian bytes.
func EncodeLinear16(pcm []int16) []byte {
	out := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	var parts []string
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
