package openai

import (
	"bufio"
	"bytes"
	"io"
)

var (
	ssePrefixData  = []byte("data:")
	ssePrefixEvent = []byte("event:")
	sseDone        = []byte("[DONE]")
)

// maxSSELineSize bounds a single event line; chat chunks with long tool call
// arguments exceed bufio's default.
const maxSSELineSize = 1 << 20

// ParseSSELine parses a single SSE line, returning (event, data, isDone)
func ParseSSELine(line []byte) (event, data string, isDone bool) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 || line[0] == ':' {
		return "", "", false
	}

	if bytes.HasPrefix(line, ssePrefixEvent) {
		return string(bytes.TrimLeft(line[len(ssePrefixEvent):], " ")), "", false
	}

	if bytes.HasPrefix(line, ssePrefixData) {
		if IsDoneMarker(line) {
			return "", "", true
		}
		return "", ExtractData(line), false
	}

	return "", "", false
}

// IsDoneMarker checks if the line is the [DONE] marker that ends a chat stream
func IsDoneMarker(line []byte) bool {
	if !bytes.HasPrefix(line, ssePrefixData) {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(line[len(ssePrefixData):]), sseDone)
}

// ExtractData extracts the data portion from a "data: xxx" line
func ExtractData(line []byte) string {
	return string(bytes.TrimLeft(bytes.TrimPrefix(line, ssePrefixData), " "))
}

// StreamChunk is one data event of a stream
type StreamChunk struct {
	Event string
	Data  []byte
	Done  bool
}

// SSEScanner reads data events from a Server-Sent Events body
type SSEScanner struct {
	scanner *bufio.Scanner
	event   string
	chunk   StreamChunk
	done    bool
}

// NewSSEScanner creates a new SSE scanner
func NewSSEScanner(r io.Reader) *SSEScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: s}
}

// Scan advances to the next data event. It returns false once the body is
// exhausted, after the [DONE] chunk, or on a read error.
func (s *SSEScanner) Scan() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		event, data, isDone := ParseSSELine(s.scanner.Bytes())
		switch {
		case isDone:
			s.done = true
			s.chunk = StreamChunk{Done: true}
			return true
		case event != "":
			s.event = event
		case data != "":
			s.chunk = StreamChunk{Event: s.event, Data: []byte(data)}
			s.event = ""
			return true
		}
	}
	return false
}

// Chunk returns the current chunk
func (s *SSEScanner) Chunk() StreamChunk {
	return s.chunk
}

// Err returns the first read error, if any
func (s *SSEScanner) Err() error {
	return s.scanner.Err()
}
