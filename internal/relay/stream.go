package relay

import (
	"encoding/json"
	"io"
	"strings"
)

// doneSentinel is the terminal SSE data payload. Once seen, the stream is
// logically complete and later lines are ignored.
const doneSentinel = "[DONE]"

// streamChunk is one decoded SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *streamChunk) content() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// Decoder is a pull-based iterator over the content deltas of an SSE token
// stream. Reads may deliver partial lines; the decoder accumulates bytes
// across reads so chunk boundaries never affect the decoded content. A data
// line whose JSON fails to parse mid-stream is pushed back in front of the
// buffer until more bytes arrive; after end-of-input, residual text gets one
// final pass in which parse failures are silently dropped.
type Decoder struct {
	r    io.Reader
	buf  string
	p    []byte
	eof  bool
	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, p: make([]byte, 4096)}
}

// Next returns the next non-empty content delta. It returns io.EOF once the
// stream is terminal, either via the done sentinel or end of input.
func (d *Decoder) Next() (string, error) {
	for {
		if d.done {
			return "", io.EOF
		}
		if delta, ok := d.nextFromBuffer(); ok {
			return delta, nil
		}
		if d.done {
			return "", io.EOF
		}
		if d.eof {
			// Final drain already ran; whatever is left cannot complete.
			d.done = true
			return "", io.EOF
		}
		if err := d.fill(); err != nil {
			if err == io.EOF {
				d.eof = true
				// Give the residue a final pass; a missing trailing newline
				// must not hide the last line.
				if d.buf != "" && !strings.HasSuffix(d.buf, "\n") {
					d.buf += "\n"
				}
				continue
			}
			return "", err
		}
	}
}

// nextFromBuffer consumes complete lines until a delta is produced, the
// buffer has no complete line left, or a line needs more bytes to parse.
func (d *Decoder) nextFromBuffer() (string, bool) {
	for {
		i := strings.IndexByte(d.buf, '\n')
		if i < 0 {
			return "", false
		}
		line := strings.TrimSuffix(d.buf[:i], "\r")
		d.buf = d.buf[i+1:]

		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == doneSentinel {
			d.done = true
			return "", false
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			if d.eof {
				// No more bytes are coming to complete this fragment.
				continue
			}
			// The line arrived split across reads: push it back and wait.
			d.buf = line + "\n" + d.buf
			return "", false
		}
		if c := chunk.content(); c != "" {
			return c, true
		}
	}
}

func (d *Decoder) fill() error {
	n, err := d.r.Read(d.p)
	if n > 0 {
		d.buf += string(d.p[:n])
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}
