package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/yndnr/tasklist-go/internal/core/domain"
)

// Limits bounds what a single request may carry.
type Limits struct {
	// MaxArgs caps the elements of one request, command name included.
	// It bounds the titles of one RPUSH.
	MaxArgs int
	// MaxArgBytes caps one bulk argument. Titles are checked against
	// domain.MaxTitleLength afterwards, so this only has to stop abuse.
	MaxArgBytes int
	// MaxInlineBytes caps an inline request line.
	MaxInlineBytes int
}

// DefaultLimits returns the limits used when Config leaves them zero.
func DefaultLimits() Limits {
	return Limits{
		MaxArgs:        1024,
		MaxArgBytes:    64 * domain.MaxTitleLength,
		MaxInlineBytes: 4 * domain.MaxTitleLength,
	}
}

// withDefaults fills zero fields from DefaultLimits.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxArgs <= 0 {
		l.MaxArgs = d.MaxArgs
	}
	if l.MaxArgBytes <= 0 {
		l.MaxArgBytes = d.MaxArgBytes
	}
	if l.MaxInlineBytes <= 0 {
		l.MaxInlineBytes = d.MaxInlineBytes
	}
	return l
}

var (
	// ErrProtocol matches malformed requests.
	ErrProtocol = errors.New("resp: protocol error")
	// ErrLimitExceeded matches requests over a Limits bound.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// headerLen is the longest "*<n>" or "$<n>" line accepted.
const headerLen = 32

type protocolError struct {
	reason string
	limit  bool
}

func (e *protocolError) Error() string {
	return e.reason
}

func (e *protocolError) Is(target error) bool {
	if e.limit {
		return target == ErrLimitExceeded
	}
	return target == ErrProtocol
}

func malformed(format string, args ...any) error {
	return &protocolError{reason: fmt.Sprintf(format, args...)}
}

func overLimit(what string, got, limit int) error {
	return &protocolError{reason: fmt.Sprintf("%s %d exceeds limit %d", what, got, limit), limit: true}
}

// requestReader decodes requests from a client stream.
type requestReader struct {
	br     *bufio.Reader
	limits Limits
}

func newRequestReader(br *bufio.Reader, limits Limits) *requestReader {
	return &requestReader{br: br, limits: limits.withDefaults()}
}

// next reads one request: a RESP array of bulk strings, or an inline line
// split on whitespace. An empty request returns nil args.
func (r *requestReader) next() ([][]byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] != '*' {
		return r.inline()
	}

	n, err := r.header('*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > r.limits.MaxArgs {
		return nil, overLimit("argument count", n, r.limits.MaxArgs)
	}

	args := make([][]byte, n)
	for i := range args {
		if args[i], err = r.bulk(); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (r *requestReader) inline() ([][]byte, error) {
	line, err := r.line(r.limits.MaxInlineBytes)
	if err != nil {
		return nil, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) > r.limits.MaxArgs {
		return nil, overLimit("argument count", len(fields), r.limits.MaxArgs)
	}
	return fields, nil
}

// bulk reads one "$<n>\r\n<data>\r\n" argument. A null bulk is nil.
func (r *requestReader) bulk() ([]byte, error) {
	n, err := r.header('$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, malformed("negative bulk length %d", n)
	case n > r.limits.MaxArgBytes:
		return nil, overLimit("argument length", n, r.limits.MaxArgBytes)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, malformed("bulk argument not terminated by CRLF")
	}
	return buf[:n], nil
}

// header reads a "<kind><int>\r\n" line.
func (r *requestReader) header(kind byte) (int, error) {
	line, err := r.line(headerLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != kind {
		return 0, malformed("expected '%c', got %q", kind, line)
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, malformed("invalid length %q", line[1:])
	}
	return n, nil
}

// line reads up to CRLF, refusing lines longer than limit bytes.
func (r *requestReader) line(limit int) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > limit+2 {
			return nil, overLimit("line length", len(buf)-2, limit)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return nil, malformed("line not terminated by CRLF")
	}
	return buf[:len(buf)-2], nil
}

// Replies. Write errors surface on the next Flush.

func (c *Conn) replyStatus(s string) {
	c.bw.WriteByte('+')
	c.bw.WriteString(s)
	c.bw.WriteString("\r\n")
}

func (c *Conn) replyError(msg string) {
	c.bw.WriteByte('-')
	c.bw.WriteString(msg)
	c.bw.WriteString("\r\n")
}

func (c *Conn) replyInt(n int) {
	c.bw.WriteByte(':')
	c.bw.WriteString(strconv.Itoa(n))
	c.bw.WriteString("\r\n")
}

func (c *Conn) replyNull() {
	c.bw.WriteString("$-1\r\n")
}

func (c *Conn) replyBulk(b []byte) {
	if b == nil {
		c.replyNull()
		return
	}
	c.bw.WriteByte('$')
	c.bw.WriteString(strconv.Itoa(len(b)))
	c.bw.WriteString("\r\n")
	c.bw.Write(b)
	c.bw.WriteString("\r\n")
}

func (c *Conn) replyArray(n int) {
	c.bw.WriteByte('*')
	c.bw.WriteString(strconv.Itoa(n))
	c.bw.WriteString("\r\n")
}

// replyTitles writes the titles of tasks as an array of bulk strings.
func (c *Conn) replyTitles(tasks []domain.Task) {
	c.replyArray(len(tasks))
	for _, t := range tasks {
		c.replyBulk([]byte(t.Title))
	}
}
