// Package audio inspects WAV input before it reaches the transcription
// engine, so silent recordings fail fast instead of paying for a whisper run
// and a model call.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

var (
	ErrInvalidWAV     = errors.New("invalid wav file")
	ErrUnsupportedWAV = errors.New("unsupported wav format")
)

type LevelMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilentWAV reports whether the file's audio level sits under
// thresholdDBFS. The peak gate is 6 dB looser than the RMS gate so a short
// transient does not mask an otherwise silent file.
func IsSilentWAV(path string, thresholdDBFS float64) (bool, LevelMetrics, error) {
	metrics, err := analyzeWAV(path)
	if err != nil {
		return false, LevelMetrics{}, err
	}

	if metrics.Samples == 0 {
		return true, metrics, nil
	}

	peakGate := thresholdDBFS + 6
	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= peakGate, metrics, nil
}

func analyzeWAV(path string) (LevelMetrics, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LevelMetrics{}, fmt.Errorf("read wav: %w", err)
	}

	if len(raw) < 12 || string(raw[:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return LevelMetrics{}, ErrInvalidWAV
	}

	var (
		audioFormat   uint16
		bitsPerSample uint16
		hasFmt        bool
		data          []byte
	)

	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(raw) {
			chunkSize = len(raw) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return LevelMetrics{}, ErrInvalidWAV
			}
			audioFormat = binary.LittleEndian.Uint16(raw[body : body+2])
			bitsPerSample = binary.LittleEndian.Uint16(raw[body+14 : body+16])
			hasFmt = true
		case "data":
			data = raw[body : body+chunkSize]
		}

		offset = body + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	if !hasFmt || data == nil {
		return LevelMetrics{}, ErrInvalidWAV
	}

	return measureLevels(data, audioFormat, bitsPerSample)
}

// Whisper input is 16-bit PCM or 32-bit float in practice; anything else is
// rejected and the caller skips the gate.
func measureLevels(data []byte, audioFormat, bitsPerSample uint16) (LevelMetrics, error) {
	var step int
	switch {
	case audioFormat == 1 && bitsPerSample == 16:
		step = 2
	case audioFormat == 3 && bitsPerSample == 32:
		step = 4
	default:
		return LevelMetrics{}, fmt.Errorf("%w: format %d with %d bits per sample", ErrUnsupportedWAV, audioFormat, bitsPerSample)
	}

	var (
		peak       float64
		sumSquares float64
		samples    int64
	)

	for i := 0; i+step <= len(data); i += step {
		var value float64
		if step == 2 {
			value = float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0
		} else {
			value = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
		}

		if abs := math.Abs(value); abs > peak {
			peak = abs
		}
		sumSquares += value * value
		samples++
	}

	if samples == 0 {
		return LevelMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	rms := math.Sqrt(sumSquares / float64(samples))
	return LevelMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  samples,
	}, nil
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
