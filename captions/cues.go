package captions

import (
	"fmt"
	"strconv"
	"strings"
)

// Cue is one parsed caption entry. Times are in seconds.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// parseCues understands the common subset of SRT and WebVTT: numbered
// or bare blocks with a "start --> end" timing line followed by text
// lines. Styling, positioning and malformed blocks are skipped.
func parseCues(data []byte) ([]Cue, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var cues []Cue
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")

		timingIdx := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timingIdx = i
				break
			}
		}
		if timingIdx < 0 || timingIdx == len(lines)-1 {
			continue
		}

		parts := strings.SplitN(lines[timingIdx], "-->", 2)
		start, err := parseTimestamp(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}

		// cue settings may follow the end timestamp
		endField := strings.Fields(strings.TrimSpace(parts[1]))
		if len(endField) == 0 {
			continue
		}
		end, err := parseTimestamp(endField[0])
		if err != nil {
			continue
		}

		cues = append(cues, Cue{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[timingIdx+1:], "\n"),
		})
	}

	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues found")
	}

	return cues, nil
}

// parseTimestamp accepts "HH:MM:SS.mmm", "HH:MM:SS,mmm" (SRT) and
// "MM:SS.mmm" (WebVTT short form).
func parseTimestamp(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp: %q", s)
	}

	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		total = total*60 + v
	}
	return total, nil
}

// cueAt returns the cue covering the given time, or -1.
func cueAt(cues []Cue, seconds float64) int {
	for i, c := range cues {
		if seconds >= c.Start && seconds < c.End {
			return i
		}
	}
	return -1
}
