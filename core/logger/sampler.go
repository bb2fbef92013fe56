package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets keep out of every n events through, in a fixed rhythm.
type ratioSampler struct {
	ratio atomic.Pointer[sampleRatio]
	seq   atomic.Uint64
}

type sampleRatio struct {
	keep, of uint64
}

func newRatioSampler(keep, of int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(keep, of)
	return s
}

// Set replaces the ratio; a non-positive part disables sampling.
func (s *ratioSampler) Set(keep, of int) {
	s.seq.Store(0)
	if keep <= 0 || of <= 0 {
		s.ratio.Store(nil)
		return
	}
	if keep > of {
		keep = of
	}
	s.ratio.Store(&sampleRatio{keep: uint64(keep), of: uint64(of)})
}

func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil {
		return true
	}
	return (s.seq.Add(1)-1)%r.of < r.keep
}

// parseRatioSpec accepts "k/n" or "n" (meaning 1/n).
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if a, b, ok := strings.Cut(spec, "/"); ok {
		keep, err1 := strconv.Atoi(strings.TrimSpace(a))
		of, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return keep, of
	}
	n, err := strconv.Atoi(spec)
	if err != nil || n <= 0 {
		return 0, 0
	}
	return 1, n
}
