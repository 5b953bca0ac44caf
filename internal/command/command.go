// Package command parses the line-oriented serial protocol used to set the
// system clock and the bloom-start timestamp. One command per line,
// terminated by ';':
//
//	T<epoch>;  set the clock (T0; or bare T; queries the current time)
//	B<epoch>;  set the bloom start (B0; disables bloom mode)
//
// Parsing is pure: the caller applies the resulting command to the clock,
// the store and the engine.
package command

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/grow-controller/internal/clock"
)

// Kind identifies the parsed command.
type Kind int

const (
	// SetClock sets the system clock to Timestamp.
	SetClock Kind = iota

	// QueryClock asks for the current time to be echoed back.
	QueryClock

	// SetBloomStart sets the persisted bloom start to Timestamp.
	SetBloomStart

	// ClearBloomStart disables bloom mode (B0;).
	ClearBloomStart
)

// Command is one successfully parsed command.
type Command struct {
	Kind      Kind
	Timestamp time.Time
}

// Parse parses a single command with its terminating ';' already stripped.
// Malformed or out-of-range commands return an error and must leave all
// state unchanged; the caller emits the diagnostic and carries on.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("empty command")
	}

	op, payload := line[:1], strings.TrimSpace(line[1:])
	switch op {
	case "T":
		if payload == "" || payload == "0" {
			return Command{Kind: QueryClock}, nil
		}
		t, err := parseEpoch(payload)
		if err != nil {
			return Command{}, fmt.Errorf("T: %w", err)
		}
		return Command{Kind: SetClock, Timestamp: t}, nil

	case "B":
		if payload == "" || payload == "0" {
			return Command{Kind: ClearBloomStart}, nil
		}
		t, err := parseEpoch(payload)
		if err != nil {
			return Command{}, fmt.Errorf("B: %w", err)
		}
		return Command{Kind: SetBloomStart, Timestamp: t}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", line)
}

func parseEpoch(payload string) (time.Time, error) {
	sec, err := strconv.ParseUint(payload, 10, 63)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", payload)
	}
	if sec < clock.MinValidEpoch {
		return time.Time{}, fmt.Errorf("timestamp %d below minimum valid epoch %d", sec, clock.MinValidEpoch)
	}
	return time.Unix(int64(sec), 0), nil
}

// NewScanner returns a scanner that yields one un-terminated command per
// Scan, splitting the stream on ';' and swallowing surrounding whitespace
// and line endings.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Split(splitCommands)
	return s
}

func splitCommands(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, ';'); i >= 0 {
		return i + 1, bytes.TrimSpace(data[:i]), nil
	}
	if atEOF && len(bytes.TrimSpace(data)) > 0 {
		return len(data), bytes.TrimSpace(data), nil
	}
	if atEOF {
		return len(data), nil, bufio.ErrFinalToken
	}
	return 0, nil, nil
}
