package tts

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/faiface/beep/wav"
	"google.golang.org/api/option"

	"neo/internal/notify"
)

// espeak's words-per-minute default, used as Google's 1.0 speaking rate.
const baseRate = 175.0

type Google struct {
	client *texttospeech.Client
	voice  *texttospeechpb.VoiceSelectionParams
	audio  *texttospeechpb.AudioConfig
}

func NewGoogle(ctx context.Context, opt Options) (*Google, error) {
	var copts []option.ClientOption
	if opt.CredentialsFile != "" {
		copts = append(copts, option.WithCredentialsFile(opt.CredentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}

	return &Google{
		client: client,
		voice:  voiceParams(opt.Language, opt.Voice),
		audio: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: 24000,
			SpeakingRate:    speakingRate(opt.Rate),
		},
	}, nil
}

// voiceParams only forwards a voice name that looks like a Google voice
// ("en-GB-Chirp3-HD-Charon"); short espeak names are dropped.
func voiceParams(language, voice string) *texttospeechpb.VoiceSelectionParams {
	if language == "" {
		language = "en-US"
	}
	p := &texttospeechpb.VoiceSelectionParams{LanguageCode: language}
	if strings.Count(voice, "-") >= 2 {
		p.Name = voice
		parts := strings.SplitN(voice, "-", 3)
		p.LanguageCode = parts[0] + "-" + parts[1]
	}
	return p
}

func speakingRate(wpm int) float64 {
	if wpm <= 0 {
		return 1
	}
	return max(0.25, min(4.0, float64(wpm)/baseRate))
}

func (g *Google) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice:       g.voice,
		AudioConfig: g.audio,
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	stream, format, err := wav.Decode(bytes.NewReader(resp.GetAudioContent()))
	if err != nil {
		return fmt.Errorf("decode synthesized audio: %w", err)
	}
	defer stream.Close()

	return notify.Play(ctx, stream, format.SampleRate)
}

func (g *Google) Name() string { return "google" }

func (g *Google) Close() error {
	return g.client.Close()
}
