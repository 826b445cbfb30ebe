package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

func (s *Server) handleInitialize(params json.RawMessage) (*InitializeResult, *Error) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &Error{
				Code:    InvalidParams,
				Message: "Invalid initialize parameters",
				Data:    err.Error(),
			}
		}
	}

	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}, nil
}

func (s *Server) handleListTools() (*ListToolsResult, *Error) {
	return &ListToolsResult{
		Tools: []Tool{
			{
				Name:        ToolName,
				Description: "Run an SQL query against the connected MySQL database",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"sql": {
							Type:        "string",
							Description: "The SQL query to execute",
						},
					},
					Required: []string{"sql"},
				},
			},
		},
	}, nil
}

// handleCallTool routes a tool invocation. Unknown tool names and bad
// arguments are recovered locally as error-flagged results; they never
// reach the executor and never fail the protocol stream.
func (s *Server) handleCallTool(params json.RawMessage) (*CallToolResult, *Error) {
	var callParams CallToolParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &Error{
			Code:    InvalidParams,
			Message: "Invalid parameters",
			Data:    err.Error(),
		}
	}

	if callParams.Name != ToolName {
		return toolError("Unknown tool: %s", callParams.Name), nil
	}

	sqlQuery, ok := callParams.Arguments["sql"].(string)
	if !ok || sqlQuery == "" {
		return toolError("Missing or invalid 'sql' argument"), nil
	}

	report, err := s.executor.RunQuery(s.ctx, sqlQuery)
	if err != nil {
		return toolError("Query error: %v", err), nil
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil
	}

	return &CallToolResult{
		Content: []Content{{Type: "text", Text: string(payload)}},
	}, nil
}

func toolError(format string, args ...any) *CallToolResult {
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func (s *Server) handleListResources() (*ListResourcesResult, *Error) {
	resources, err := s.catalog.ListEntries(s.ctx)
	if err != nil {
		return nil, &Error{
			Code:    InternalError,
			Message: fmt.Sprintf("Failed to list tables: %v", err),
		}
	}
	return &ListResourcesResult{Resources: resources}, nil
}

func (s *Server) handleReadResource(params json.RawMessage) (*ReadResourceResult, *Error) {
	var readParams ReadResourceParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &Error{
			Code:    InvalidParams,
			Message: "Invalid parameters",
			Data:    err.Error(),
		}
	}

	columns, err := s.catalog.DescribeEntry(s.ctx, readParams.URI)
	if err != nil {
		if errors.Is(err, ErrInvalidLocator) {
			return nil, &Error{Code: InvalidParams, Message: err.Error()}
		}
		return nil, &Error{
			Code:    InternalError,
			Message: fmt.Sprintf("Failed to read schema: %v", err),
		}
	}

	payload, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return nil, &Error{
			Code:    InternalError,
			Message: fmt.Sprintf("Failed to marshal schema: %v", err),
		}
	}

	return &ReadResourceResult{
		Contents: []ResourceContent{
			{
				URI:      readParams.URI,
				MimeType: "application/json",
				Text:     string(payload),
			},
		},
	}, nil
}
