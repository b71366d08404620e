package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	Silent
	events *[]string
	err    error
}

func (r recordingEngine) Speak(_ context.Context, text string) error {
	*r.events = append(*r.events, "speak "+text)
	return r.err
}

type fakeDucker struct {
	events  *[]string
	duckErr error
}

func (f fakeDucker) Duck(context.Context) error {
	*f.events = append(*f.events, "duck")
	return f.duckErr
}

func (f fakeDucker) Restore(context.Context) error {
	*f.events = append(*f.events, "restore")
	return nil
}

func TestNew_Silent(t *testing.T) {
	e, err := New(context.Background(), "none", Options{})
	require.NoError(t, err)

	assert.Equal(t, "none", e.Name())
	assert.NoError(t, e.Speak(context.Background(), "hello"))
	assert.NoError(t, e.Close())
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(context.Background(), "festival", Options{})
	assert.Error(t, err)
}

func TestDucked_Order(t *testing.T) {
	var events []string
	e := WithDucking(recordingEngine{events: &events}, fakeDucker{events: &events})

	require.NoError(t, e.Speak(context.Background(), "hi"))
	assert.Equal(t, []string{"duck", "speak hi", "restore"}, events)
	assert.Equal(t, "none", e.Name())
}

func TestDucked_DuckFailureStillSpeaks(t *testing.T) {
	var events []string
	boom := errors.New("speech failed")
	e := WithDucking(
		recordingEngine{events: &events, err: boom},
		fakeDucker{events: &events, duckErr: errors.New("no pulse")},
	)

	assert.ErrorIs(t, e.Speak(context.Background(), "hi"), boom)
	assert.Equal(t, []string{"duck", "speak hi", "restore"}, events)
}

func TestSpeakingRate(t *testing.T) {
	assert.Equal(t, 1.0, speakingRate(0))
	assert.InDelta(t, 150.0/175.0, speakingRate(150), 1e-9)
	assert.Equal(t, 4.0, speakingRate(2000))
	assert.Equal(t, 0.25, speakingRate(1))
}

func TestVoiceParams(t *testing.T) {
	p := voiceParams("en-US", "en")
	assert.Equal(t, "en-US", p.LanguageCode)
	assert.Empty(t, p.Name)

	p = voiceParams("en-US", "en-GB-Chirp3-HD-Charon")
	assert.Equal(t, "en-GB", p.LanguageCode)
	assert.Equal(t, "en-GB-Chirp3-HD-Charon", p.Name)

	assert.Equal(t, "en-US", voiceParams("", "").LanguageCode)
}
