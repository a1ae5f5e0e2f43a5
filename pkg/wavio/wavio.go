// Package wavio loads and writes 16-bit mono WAV files: just enough
// RIFF plumbing to read instrument samples in and write rendered
// arrangements out.
package wavio

import (
	"encoding/binary"
	"io"

	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/scoreerr"
)

// LoadSample reads a 16-bit PCM mono WAV stream and returns it as
// normalized score.SampleData in [-1, 1]. It expects (but does not
// strictly validate beyond a handful of sanity checks) a canonical
// RIFF/WAVE/fmt /data chunk layout.
func LoadSample(r io.Reader) (score.SampleData, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return score.SampleData{}, scoreerr.WrapFileError(err, "reading RIFF header")
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return score.SampleData{}, scoreerr.NewFileError("not a RIFF/WAVE stream")
	}

	var sampleRate uint32
	var bitsPerSample uint16
	var channels uint16
	foundFmt := false

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return score.SampleData{}, scoreerr.WrapFileError(err, "reading chunk header")
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			fmtBody := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, fmtBody); err != nil {
				return score.SampleData{}, scoreerr.WrapFileError(err, "reading fmt chunk")
			}
			channels = binary.LittleEndian.Uint16(fmtBody[2:4])
			sampleRate = binary.LittleEndian.Uint32(fmtBody[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(fmtBody[14:16])
			foundFmt = true
		case "data":
			if !foundFmt {
				return score.SampleData{}, scoreerr.NewFileError("data chunk before fmt chunk")
			}
			if bitsPerSample != 16 {
				return score.SampleData{}, scoreerr.NewFileError("unsupported bits per sample: %d", bitsPerSample)
			}
			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return score.SampleData{}, scoreerr.WrapFileError(err, "reading data chunk")
			}
			frameChannels := int(channels)
			if frameChannels == 0 {
				frameChannels = 1
			}
			numFrames := len(raw) / (2 * frameChannels)
			samples := make([]float64, numFrames)
			for i := 0; i < numFrames; i++ {
				// First channel only; the whole pipeline is mono.
				off := i * 2 * frameChannels
				v := int16(raw[off]) | int16(raw[off+1])<<8
				samples[i] = float64(v) / 32768.0
			}
			return score.SampleData{Samples: samples, SampleRate: float64(sampleRate)}, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return score.SampleData{}, scoreerr.WrapFileError(err, "skipping chunk %q", chunkID)
			}
		}
		if chunkSize%2 == 1 {
			var pad [1]byte
			io.ReadFull(r, pad[:])
		}
	}

	return score.SampleData{}, scoreerr.NewFileError("no data chunk found")
}

// Writer writes 16-bit PCM mono WAV data to an underlying io.Writer.
type Writer struct {
	w           io.Writer
	sampleRate  int
	channels    int
	dataWritten int
}

// NewWriter creates a WAV writer for the given sample rate and channel
// count (the offline renderer always uses channels=1).
func NewWriter(w io.Writer, sampleRate, channels int) *Writer {
	return &Writer{w: w, sampleRate: sampleRate, channels: channels}
}

// WriteHeader writes the RIFF/WAVE/fmt /data chunk header for a stream
// of dataSize bytes of 16-bit PCM.
func (w *Writer) WriteHeader(dataSize int) error {
	if _, err := w.w.Write([]byte("RIFF")); err != nil {
		return scoreerr.WrapFileError(err, "writing RIFF tag")
	}
	binary.Write(w.w, binary.LittleEndian, uint32(dataSize+36))
	w.w.Write([]byte("WAVE"))

	w.w.Write([]byte("fmt "))
	binary.Write(w.w, binary.LittleEndian, uint32(16))
	binary.Write(w.w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w.w, binary.LittleEndian, uint16(w.channels))
	binary.Write(w.w, binary.LittleEndian, uint32(w.sampleRate))
	byteRate := w.sampleRate * w.channels * 2
	binary.Write(w.w, binary.LittleEndian, uint32(byteRate))
	blockAlign := w.channels * 2
	binary.Write(w.w, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w.w, binary.LittleEndian, uint16(16))

	w.w.Write([]byte("data"))
	return binary.Write(w.w, binary.LittleEndian, uint32(dataSize))
}

// WriteSamples writes float samples, clamped to [-1, 1], as 16-bit PCM.
func (w *Writer) WriteSamples(samples []float64) error {
	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		s16 := int16(s * 32767)
		if err := binary.Write(w.w, binary.LittleEndian, s16); err != nil {
			return scoreerr.WrapFileError(err, "writing sample")
		}
		w.dataWritten += 2
	}
	return nil
}

// WriteAll writes a complete mono WAV file (header plus all samples) in
// one call.
func WriteAll(w io.Writer, samples []float64, sampleRate int) error {
	writer := NewWriter(w, sampleRate, 1)
	if err := writer.WriteHeader(len(samples) * 2); err != nil {
		return err
	}
	return writer.WriteSamples(samples)
}
