package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the discrete
// Fourier transform of data. The mean is removed first so bin 0 only holds
// what the detrending leaves behind. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, max(len(spectrum)/2, 1))
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-zero bin of
// ps for a series sampled every interval seconds, and that bin's power.
func DominantFrequency(ps []float64, interval float64) (float64, float64) {
	n := 2 * len(ps)
	if n < 4 || !(interval > 0) {
		return 0, 0
	}

	best, power := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			best, power = i, ps[i]
		}
	}
	return float64(best) / (float64(n) * interval), power
}
