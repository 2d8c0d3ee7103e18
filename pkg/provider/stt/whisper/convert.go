package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// wavFormat holds the fields of a RIFF fmt chunk the decoder cares about.
type wavFormat struct {
	channels      int
	sampleRate    int
	bitsPerSample int
}

var errBadWAV = errors.New("whisper: malformed WAV file")

// decodeWAV parses a RIFF/WAV container and returns its PCM payload together
// with the declared format. Only uncompressed PCM (format tag 1) is accepted.
func decodeWAV(data []byte) ([]byte, wavFormat, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, wavFormat{}, errBadWAV
	}

	var (
		format  wavFormat
		haveFmt bool
	)
	// Walk the chunk list. Chunks are 8 bytes of header (ID + size) followed
	// by size payload bytes, padded to even length.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, wavFormat{}, errBadWAV
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, wavFormat{}, errBadWAV
			}
			if tag := binary.LittleEndian.Uint16(data[body : body+2]); tag != 1 {
				return nil, wavFormat{}, fmt.Errorf("%w: unsupported format tag %d", errBadWAV, tag)
			}
			format = wavFormat{
				channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				sampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				bitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, wavFormat{}, errBadWAV
			}
			if format.bitsPerSample != 16 {
				return nil, wavFormat{}, fmt.Errorf("%w: %d bits per sample, want 16", errBadWAV, format.bitsPerSample)
			}
			return data[body : body+size], format, nil
		}

		off = body + size
		if size%2 == 1 {
			off++
		}
	}
	return nil, wavFormat{}, errBadWAV
}

// pcmToFloat32 converts 16-bit signed little-endian PCM audio to float32
// samples normalised to the range [-1.0, 1.0]. The input length must be
// even (two bytes per sample); any trailing odd byte is silently ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// pcmToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame. If channels is 1 this is equivalent to
// pcmToFloat32.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		return pcmToFloat32(pcm)
	}
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
