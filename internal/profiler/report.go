package profiler

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Header is the column header line of the printed report.
const Header = "Line #      Hits         Time   Per Hit   % Time  Line Contents"

// ErrNoReport is returned when the output does not contain a report.
var ErrNoReport = errors.New("no line profile in output")

var (
	totalRe    = regexp.MustCompile(`^Total time: ([0-9.]+) s$`)
	functionRe = regexp.MustCompile(`^Function: (\S+) at line (\d+)$`)
	rowRe      = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)%  (.*)$`)
)

// LineStat is one row of the report.
type LineStat struct {
	Line     int           `json:"line"`
	Hits     int           `json:"hits"`
	Time     time.Duration `json:"time"`
	PerHit   time.Duration `json:"per_hit"`
	Percent  float64       `json:"percent"`
	Contents string        `json:"contents"`
}

// Report is a line profile read back from cleaned REPL output.
type Report struct {
	Function string        `json:"function"`
	Line     int           `json:"line"`
	Total    time.Duration `json:"total"`
	Lines    []LineStat    `json:"lines"`
}

// ParseReport reads the report printed by an instrumented function. Echoed
// input lines never match since they carry the prompt prefix.
func ParseReport(text string) (Report, error) {
	var (
		r     Report
		found bool
		rows  bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " \t\r")
		switch {
		case totalRe.MatchString(trimmed):
			m := totalRe.FindStringSubmatch(trimmed)
			r.Total = seconds(m[1])
		case functionRe.MatchString(trimmed):
			m := functionRe.FindStringSubmatch(trimmed)
			r.Function = m[1]
			r.Line, _ = strconv.Atoi(m[2])
			found = true
		case trimmed == Header:
			continue
		case found && strings.HasPrefix(trimmed, "=====") && strings.Trim(trimmed, "=") == "":
			rows = true
		case rows:
			m := rowRe.FindStringSubmatch(trimmed)
			if m == nil {
				rows = false
				continue
			}
			ln, _ := strconv.Atoi(m[1])
			hits, _ := strconv.Atoi(m[2])
			pct, _ := strconv.ParseFloat(m[5], 64)
			r.Lines = append(r.Lines, LineStat{
				Line:     ln,
				Hits:     hits,
				Time:     seconds(m[3]),
				PerHit:   seconds(m[4]),
				Percent:  pct,
				Contents: m[6],
			})
		}
	}
	if !found {
		return Report{}, ErrNoReport
	}
	return r, nil
}

func seconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Round(f * float64(time.Second)))
}
