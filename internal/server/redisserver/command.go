package redisserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/tasklist-go/internal/core/domain"
	"github.com/yndnr/tasklist-go/internal/core/service"
	"github.com/yndnr/tasklist-go/internal/server/ratelimit"
	"github.com/yndnr/tasklist-go/internal/telemetry/metric"
)

// ListKey is the only list the server exposes.
const ListKey = "tasks"

var knownCommands = map[string]bool{
	"PING": true, "ECHO": true, "QUIT": true,
	"RPUSH": true, "LLEN": true, "LINDEX": true, "LRANGE": true,
	"JOURNAL": true,
}

// formatRedisError converts an error to a Redis error string.
// For DomainErrors, returns "ERR <code> <message>[: <details>]".
// For other errors, returns "ERR <message>".
func formatRedisError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg := "ERR " + de.Code + " " + de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		return msg
	}
	return "ERR " + err.Error()
}

// CommandHandler handles Redis commands.
type CommandHandler struct {
	svc     *service.TaskService
	limiter *ratelimit.Limiter
	metrics *metric.Registry
	logger  *slog.Logger
}

// NewCommandHandler creates a new CommandHandler. limiter and metrics may be nil.
func NewCommandHandler(svc *service.TaskService, limiter *ratelimit.Limiter, metrics *metric.Registry, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandHandler{
		svc:     svc,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// Handle handles a Redis command (RESP array of bulk strings).
func (h *CommandHandler) Handle(conn *Conn, args [][]byte) {
	if len(args) == 0 {
		conn.replyError("ERR no command")
		return
	}

	start := time.Now()
	cmdName := string(bytes.ToUpper(args[0]))
	conn.failed = false

	h.dispatch(conn, cmdName, args)

	if h.metrics != nil {
		label := cmdName
		if !knownCommands[cmdName] {
			label = "UNKNOWN"
		}
		status := "ok"
		if conn.failed {
			status = "error"
		}
		h.metrics.RecordRequest("resp", label, status)
		h.metrics.ObserveRequestDuration("resp", label, time.Since(start).Seconds())
	}
}

func (h *CommandHandler) dispatch(conn *Conn, cmdName string, args [][]byte) {
	// Connection-level commands are never rate limited.
	switch cmdName {
	case "PING":
		h.handlePing(conn, args)
		return
	case "QUIT":
		h.handleQuit(conn, args)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(clientKey(conn.RemoteAddr())) {
		h.fail(conn, "ERR TL-SYS-4290 too many requests")
		return
	}

	switch cmdName {
	case "ECHO":
		h.handleEcho(conn, args)
	case "RPUSH":
		h.handleRPush(conn, args)
	case "LLEN":
		h.handleLLen(conn, args)
	case "LINDEX":
		h.handleLIndex(conn, args)
	case "LRANGE":
		h.handleLRange(conn, args)
	case "JOURNAL":
		h.handleJournal(conn, args)
	default:
		h.fail(conn, "ERR unknown command '"+cmdName+"'")
	}
}

func (h *CommandHandler) fail(conn *Conn, msg string) {
	conn.failed = true
	conn.replyError(msg)
}

func (h *CommandHandler) wrongArgs(conn *Conn, cmdName string) {
	h.fail(conn, "ERR wrong number of arguments for '"+cmdName+"' command")
}

// checkKey reports whether key names the task list, replying otherwise.
func (h *CommandHandler) checkKey(conn *Conn, key []byte) bool {
	if string(key) != ListKey {
		h.fail(conn, "ERR no such list")
		return false
	}
	return true
}

func (h *CommandHandler) parseIndex(conn *Conn, b []byte) (int, bool) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		h.fail(conn, "ERR "+domain.ErrInvalidArgument.Code+" value is not an integer or out of range")
		return 0, false
	}
	return n, true
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) {
	switch len(args) {
	case 1:
		conn.replyStatus("PONG")
	case 2:
		conn.replyBulk(args[1])
	default:
		h.wrongArgs(conn, "PING")
	}
}

func (h *CommandHandler) handleEcho(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		h.wrongArgs(conn, "ECHO")
		return
	}
	conn.replyBulk(args[1])
}

func (h *CommandHandler) handleQuit(conn *Conn, _ [][]byte) {
	conn.replyStatus("OK")
	_ = conn.bw.Flush()
	_ = conn.Close()
}

// RPUSH tasks <title> [title ...]
//
// Every title is validated before any is appended, so an invalid title
// rejects the whole command. The reply is the list length right after the
// last title was published.
func (h *CommandHandler) handleRPush(conn *Conn, args [][]byte) {
	if len(args) < 3 {
		h.wrongArgs(conn, "RPUSH")
		return
	}
	if !h.checkKey(conn, args[1]) {
		return
	}

	titles := make([]string, 0, len(args)-2)
	for _, arg := range args[2:] {
		title := string(arg)
		if err := (domain.Task{Title: title}).Validate(); err != nil {
			h.fail(conn, formatRedisError(err))
			return
		}
		titles = append(titles, title)
	}

	last := -1
	for _, title := range titles {
		resp, err := h.svc.Add(conn.ctx, service.AddTaskRequest{Title: title})
		if err != nil {
			h.fail(conn, formatRedisError(err))
			return
		}
		conn.pushed.Add(1)
		last = resp.Index
	}

	conn.replyInt(last + 1)
}

// LLEN tasks
func (h *CommandHandler) handleLLen(conn *Conn, args [][]byte) {
	if len(args) != 2 {
		h.wrongArgs(conn, "LLEN")
		return
	}
	if !h.checkKey(conn, args[1]) {
		return
	}
	conn.replyInt(h.svc.Count(conn.ctx))
}

// LINDEX tasks <index>
//
// Negative indexes count from the end of one captured snapshot.
func (h *CommandHandler) handleLIndex(conn *Conn, args [][]byte) {
	if len(args) != 3 {
		h.wrongArgs(conn, "LINDEX")
		return
	}
	if !h.checkKey(conn, args[1]) {
		return
	}
	index, ok := h.parseIndex(conn, args[2])
	if !ok {
		return
	}

	view := h.svc.Snapshot(conn.ctx)
	if index < 0 {
		index += view.Len()
	}
	task, err := view.At(index)
	if err != nil {
		conn.replyNull()
		return
	}
	conn.replyBulk([]byte(task.Title))
}

// LRANGE tasks <start> <stop>
//
// Redis semantics: stop is inclusive, negative offsets count from the end,
// out of range bounds are clamped. Both bounds resolve against one snapshot.
func (h *CommandHandler) handleLRange(conn *Conn, args [][]byte) {
	if len(args) != 4 {
		h.wrongArgs(conn, "LRANGE")
		return
	}
	if !h.checkKey(conn, args[1]) {
		return
	}
	start, ok := h.parseIndex(conn, args[2])
	if !ok {
		return
	}
	stop, ok := h.parseIndex(conn, args[3])
	if !ok {
		return
	}

	view := h.svc.Snapshot(conn.ctx)
	n := view.Len()
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(start, 0)
	stop = min(stop, n-1)

	if start > stop {
		conn.replyArray(0)
		return
	}

	conn.replyTitles(view.Range(start, stop+1))
}

// JOURNAL
//
// Replies with the journal entries of this connection as JSON bulk strings.
func (h *CommandHandler) handleJournal(conn *Conn, args [][]byte) {
	if len(args) != 1 {
		h.wrongArgs(conn, "JOURNAL")
		return
	}

	// The journal is opened by the first RPUSH; do not open one just to read it.
	if conn.pushed.Load() == 0 {
		conn.replyArray(0)
		return
	}

	entries, err := h.svc.Journal(conn.ctx)
	if err != nil {
		h.fail(conn, formatRedisError(err))
		return
	}

	conn.replyArray(len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			conn.replyNull()
			continue
		}
		conn.replyBulk(data)
	}
}

// clientKey returns the host part of addr for rate limiting.
func clientKey(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	s := addr.String()
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	return s
}
