package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Signal is one parsed transcoder observation. A signal without a
// percentage still proves the transcoder is alive.
type Signal struct {
	Percent    int
	HasPercent bool
	End        bool
}

// TranscodeParser consumes the transcoder's key=value progress stream.
// Progress arrives in periodic blocks terminated by a "progress" sentinel
// pair; a block may be split across read chunks, so the parser keeps the
// partial trailing line between calls to Feed.
//
// The percentage needs the total duration, which is discovered separately
// on the diagnostic stream (see ObserveDiagnostic) and may arrive after the
// first progress blocks. Until then signals carry no percentage.
type TranscodeParser struct {
	rem string

	mu       sync.Mutex
	duration float64 // total seconds, 0 until discovered
}

func NewTranscodeParser() *TranscodeParser {
	return &TranscodeParser{}
}

// Feed consumes one chunk of the progress stream and returns the signals
// from every complete line in it.
func (p *TranscodeParser) Feed(chunk string) []Signal {
	data := p.rem + chunk
	lines := strings.Split(data, "\n")
	p.rem = lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	var signals []Signal
	for _, line := range lines {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "out_time_ms":
			// Despite the name the value is in microseconds.
			micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				continue
			}
			if pct, ok := p.percent(float64(micros) / 1e6); ok {
				signals = append(signals, Signal{Percent: pct, HasPercent: true})
			} else {
				signals = append(signals, Signal{})
			}
		case "progress":
			if strings.TrimSpace(value) == "end" {
				signals = append(signals, Signal{End: true})
			}
		}
	}
	return signals
}

func (p *TranscodeParser) percent(elapsedSeconds float64) (int, bool) {
	p.mu.Lock()
	total := p.duration
	p.mu.Unlock()
	if total <= 0 {
		return 0, false
	}
	pct := int(math.Round(elapsedSeconds / total * 100))
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// Duration lines appear once on the diagnostic stream before progress
// blocks begin:
//
//	Duration: 00:01:30.50, start: 0.000000, bitrate: 128 kb/s
var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)

// ObserveDiagnostic scans one diagnostic line for the total duration and
// reports whether it was found there. Called from the stderr reader
// concurrently with Feed, so the handoff is locked.
func (p *TranscodeParser) ObserveDiagnostic(line string) bool {
	seconds, ok := ParseDuration(line)
	if !ok {
		return false
	}
	p.mu.Lock()
	p.duration = seconds
	p.mu.Unlock()
	return true
}

// DurationSeconds returns the discovered total duration, 0 if unknown.
func (p *TranscodeParser) DurationSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// ParseDuration extracts total seconds from a "Duration: HH:MM:SS.ff" line.
func ParseDuration(line string) (float64, bool) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	total := float64(hours*3600 + minutes*60 + seconds)
	if m[4] != "" {
		frac, err := strconv.ParseFloat("0."+m[4], 64)
		if err == nil {
			total += frac
		}
	}
	return total, true
}
