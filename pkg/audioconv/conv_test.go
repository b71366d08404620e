package audioconv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, rate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestDecodeFile_WAVMono16k(t *testing.T) {
	data := []int{0, 1000, -1000, 16384, -16384, 32767}
	path := writeWAV(t, 16000, 1, data)

	pcm, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, pcm, len(data))

	for i, v := range data {
		assert.InDelta(t, v, pcm[i], 2, "sample %d", i)
	}
}

func TestDecodeFile_WAVStereo32k(t *testing.T) {
	// Stereo frames with opposite channels average to silence.
	var data []int
	for i := 0; i < 3200; i++ {
		data = append(data, 8000, -8000)
	}
	path := writeWAV(t, 32000, 2, data)

	pcm, err := DecodeFile(path, Options{})
	require.NoError(t, err)

	assert.Len(t, pcm, 1600)
	for _, v := range pcm {
		assert.Zero(t, v)
	}
}

func TestDecodeFile_MaxSamples(t *testing.T) {
	path := writeWAV(t, 16000, 1, make([]int, 1000))

	pcm, err := DecodeFile(path, Options{MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, pcm, 100)
}

func TestDecodeFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

	_, err := DecodeFile(path, Options{})
	assert.Error(t, err)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, Downmix([]float32{1, 0, 0.5, -0.5}, 2))

	mono := []float32{0.1, 0.2}
	assert.Equal(t, mono, Downmix(mono, 1))
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, -1}

	assert.Equal(t, in, Resample(in, 16000, 16000))

	up := Resample(in, 8000, 16000)
	require.Len(t, up, 8)
	assert.InDelta(t, 0.5, up[1], 1e-6)
	assert.InDelta(t, 1, up[2], 1e-6)

	down := Resample(in, 32000, 16000)
	assert.Len(t, down, 2)
}

func TestToInt16(t *testing.T) {
	got := ToInt16([]float32{0, 1, -1, 2, -2, 0.5})
	assert.Equal(t, []int16{0, 32767, -32767, 32767, -32768, 16384}, got)
}
