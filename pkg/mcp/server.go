package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pario-ai/recap/pkg/logging"
	"github.com/pario-ai/recap/pkg/models"
)

const maxLineBytes = 1 << 20

// Summarizer produces summaries for the recap_summarize tool.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.CachedResponse, error)
}

// StatsSource aggregates recorded request outcomes.
type StatsSource interface {
	Summary(ctx context.Context, since time.Time) ([]models.TelemetrySummary, error)
}

// CacheStatter reports durable cache statistics.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Server speaks the Model Context Protocol over a line-delimited JSON-RPC
// stream, typically stdio.
type Server struct {
	sum     Summarizer
	stats   StatsSource
	cache   CacheStatter
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStats enables the recap_stats tool.
func WithStats(src StatsSource) Option {
	return func(s *Server) { s.stats = src }
}

// WithCacheStats enables the recap_cache_stats tool.
func WithCacheStats(c CacheStatter) Option {
	return func(s *Server) { s.cache = c }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server backed by sum.
func New(sum Summarizer, version string, opts ...Option) *Server {
	s := &Server{sum: sum, version: version, logger: logging.Discard()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run serves requests read from r, one JSON message per line, until r is
// exhausted or ctx is done.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, Response{JSONRPC: jsonrpcVersion, Error: &RPCError{Code: CodeParseError, Message: "parse error"}})
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, *resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	resp := &Response{JSONRPC: jsonrpcVersion, ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: "recap", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}
	case "notifications/initialized":
		return nil
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = toolsListResult{Tools: s.tools()}
	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			resp.Error = &RPCError{Code: CodeInvalidParams, Message: "invalid params"}
			return resp
		}
		resp.Result = s.call(ctx, params)
	default:
		if len(req.ID) == 0 {
			return nil
		}
		resp.Error = &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}
	return resp
}

func (s *Server) call(ctx context.Context, params toolCallParams) (result ToolResult) {
	h, ok := handlers[params.Name]
	if !ok || !s.enabled(params.Name) {
		r := textResult(fmt.Sprintf("unknown tool: %s", params.Name))
		r.IsError = true
		return r
	}
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("mcp tool panicked", "tool", params.Name, "panic", v)
			result = errorResult("internal error", fmt.Errorf("%v", v))
		}
	}()
	s.logger.Debug("mcp tool call", "tool", params.Name)
	return h(ctx, s, params.Arguments)
}

func (s *Server) write(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("mcp marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("mcp write response", "error", err)
	}
}
