package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// operation enumerates the protocol methods the dispatcher understands.
// Routing goes through this type so every handler is an explicit case
// rather than a scattered string comparison.
type operation int

const (
	opInitialize operation = iota
	opInitialized
	opPing
	opListTools
	opCallTool
	opListResources
	opReadResource
)

var operations = map[string]operation{
	"initialize":     opInitialize,
	"initialized":    opInitialized,
	"ping":           opPing,
	"tools/list":     opListTools,
	"tools/call":     opCallTool,
	"resources/list": opListResources,
	"resources/read": opReadResource,
}

// queryRunner is what the dispatcher needs from the query executor.
type queryRunner interface {
	RunQuery(ctx context.Context, query string) (*ExecutionReport, error)
}

// Server dispatches MCP requests over stdio onto the catalog browser and
// the query executor.
type Server struct {
	catalog  *Catalog
	executor queryRunner
	ctx      context.Context
	cancel   context.CancelFunc

	mu  sync.Mutex // serializes writes to out
	out io.Writer
}

// NewServer binds a dispatcher to the pool. The pool must already have
// passed read-only verification.
func NewServer(ctx context.Context, pool *Pool) *Server {
	serverCtx, serverCancel := context.WithCancel(ctx)
	return &Server{
		catalog:  NewCatalog(pool),
		executor: NewExecutor(pool),
		ctx:      serverCtx,
		cancel:   serverCancel,
		out:      os.Stdout,
	}
}

// Run reads newline-delimited JSON-RPC messages from stdin until EOF.
// Each message is handled on its own goroutine, so a slow query blocks only
// the request that issued it; responses are serialized onto stdout.
func (s *Server) Run() error {
	reader := bufio.NewReader(os.Stdin)
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		inflight.Add(1)
		go func(data []byte) {
			defer inflight.Done()
			s.respond(s.handleMessage(data))
		}([]byte(line))
	}
}

func (s *Server) respond(resp *JSONRPCResponse) {
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		logError("failed to marshal response: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(data))
}

func (s *Server) handleMessage(data []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      nil,
			Error: &Error{
				Code:    ParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	if req.JSONRPC != "2.0" {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    InvalidRequest,
				Message: "Invalid JSON-RPC version",
			},
		}
	}

	return s.handleRequest(&req)
}

func (s *Server) handleRequest(req *JSONRPCRequest) *JSONRPCResponse {
	op, known := operations[req.Method]
	if !known {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    MethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}

	var result any
	var rpcErr *Error

	switch op {
	case opInitialize:
		result, rpcErr = s.handleInitialize(req.Params)
	case opInitialized:
		// Notification, no response needed
		return nil
	case opPing:
		result = map[string]any{}
	case opListTools:
		result, rpcErr = s.handleListTools()
	case opCallTool:
		result, rpcErr = s.handleCallTool(req.Params)
	case opListResources:
		result, rpcErr = s.handleListResources()
	case opReadResource:
		result, rpcErr = s.handleReadResource(req.Params)
	}

	resp := &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

// Shutdown stops accepting requests.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[mysql-mcp] "+format+"\n", args...)
}
