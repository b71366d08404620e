package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_open(const char *voice, int rate)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	if (voice && espeak_SetVoiceByName(voice) != EE_OK)
	{ return -2; }

	if (espeak_SetParameter(espeakRATE, rate, 0) != EE_OK)
	{ return -3; }

	return 0;
}

static int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }

	espeak_Synchronize();
	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

// Espeak speaks through libespeak-ng with synchronous playback.
type Espeak struct {
	mu sync.Mutex
}

func NewEspeak(voice string, rate int) (*Espeak, error) {
	var cvoice *C.char
	if voice != "" {
		cvoice = C.CString(voice)
		defer C.free(unsafe.Pointer(cvoice))
	}

	if rc := C.espeak_open(cvoice, C.int(rate)); rc != 0 {
		return nil, fmt.Errorf("espeak_open failed: %d", int(rc))
	}
	return &Espeak{}, nil
}

// Speak returns once playback has finished. The call cannot be interrupted,
// ctx is only checked before starting.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.espeak_say(ctext); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}

func (e *Espeak) Name() string { return "espeak" }

func (e *Espeak) Close() error {
	C.espeak_Terminate()
	return nil
}
