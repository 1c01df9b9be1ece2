package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// mcpSession is the part of *mcp.ClientSession the server handle uses.
type mcpSession interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

type MCPServerParams struct {
	Name    string
	Command string
	Args    []string
	// Env is appended to the parent environment of the spawned process.
	Env     []string
	Timeout time.Duration
}

// MCPServer is a long-lived handle to a tool server spoken to over stdio.
// Connect must be called before Tools, and Close once the process is done.
type MCPServer struct {
	name    string
	timeout time.Duration
	connect func(ctx context.Context) (mcpSession, error)
	log     *zap.SugaredLogger

	mu      sync.Mutex
	session mcpSession
	tools   []*mcp.Tool
}

func NewMCPServerStdio(params MCPServerParams) *MCPServer {
	name := params.Name
	if name == "" {
		name = "stdio: " + strings.Join(append([]string{params.Command}, params.Args...), " ")
	}

	return &MCPServer{
		name:    name,
		timeout: params.Timeout,
		log:     logger.Named("mcp"),
		connect: func(ctx context.Context) (mcpSession, error) {
			cmd := exec.Command(params.Command, params.Args...)
			cmd.Env = append(os.Environ(), params.Env...)
			cmd.Stderr = os.Stderr

			client := mcp.NewClient(&mcp.Implementation{Name: "stockpilot"}, nil)
			return client.Connect(ctx, mcp.NewCommandTransport(cmd))
		},
	}
}

func (s *MCPServer) Name() string { return s.name }

// Connect starts the server and caches its tool list.
func (s *MCPServer) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return nil
	}

	session, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %w", models.ErrToolBackend, s.name, err)
	}

	var listed []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			_ = session.Close()
			return fmt.Errorf("%w: list tools on %s: %w", models.ErrToolBackend, s.name, err)
		}
		listed = append(listed, res.Tools...)
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}

	s.session = session
	s.tools = listed
	s.log.Infow("mcp server connected", "server", s.name, "tools", len(listed))
	return nil
}

func (s *MCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	s.tools = nil
	s.log.Infow("mcp server closed", "server", s.name)
	return err
}

// Tools wraps every tool advertised by the server as an eino tool.
func (s *MCPServer) Tools(ctx context.Context) ([]tool.InvokableTool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, fmt.Errorf("%w: server %s not connected", models.ErrToolBackend, s.name)
	}

	out := make([]tool.InvokableTool, 0, len(s.tools))
	for _, t := range s.tools {
		info, err := mcpToolInfo(t)
		if err != nil {
			return nil, err
		}
		out = append(out, &mcpTool{server: s, info: info})
	}
	return out, nil
}

func (s *MCPServer) call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return nil, fmt.Errorf("server %s not connected", s.name)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

type mcpTool struct {
	server *MCPServer
	info   *schema.ToolInfo
}

func (t *mcpTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *mcpTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(argumentsInJSON) != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", t.info.Name, err)
		}
	}

	res, err := t.server.call(ctx, t.info.Name, args)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrToolBackend, t.info.Name, err)
	}

	text := joinTextContent(res.Content)
	if res.IsError {
		return "", fmt.Errorf("%w: %s: %s", models.ErrToolBackend, t.info.Name, text)
	}
	return text, nil
}

func joinTextContent(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func mcpToolInfo(t *mcp.Tool) (*schema.ToolInfo, error) {
	if t == nil {
		return nil, errors.New("nil mcp tool")
	}

	raw := map[string]any{}
	if t.InputSchema != nil {
		b, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal input schema of %s: %w", t.Name, err)
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("decode input schema of %s: %w", t.Name, err)
		}
	}

	return &schema.ToolInfo{
		Name:        t.Name,
		Desc:        t.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(objectParams(raw)),
	}, nil
}

func objectParams(obj map[string]any) map[string]*schema.ParameterInfo {
	props, _ := obj["properties"].(map[string]any)
	required := map[string]bool{}
	if req, ok := obj["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}

	params := make(map[string]*schema.ParameterInfo, len(props))
	for name, p := range props {
		prop, ok := p.(map[string]any)
		if !ok {
			continue
		}
		info := paramInfo(prop)
		info.Required = required[name]
		params[name] = info
	}
	return params
}

func paramInfo(prop map[string]any) *schema.ParameterInfo {
	info := &schema.ParameterInfo{
		Type: jsonType(prop["type"]),
	}
	info.Desc, _ = prop["description"].(string)

	if enum, ok := prop["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				info.Enum = append(info.Enum, s)
			}
		}
	}

	switch info.Type {
	case schema.Array:
		if items, ok := prop["items"].(map[string]any); ok {
			info.ElemInfo = paramInfo(items)
		}
	case schema.Object:
		if sub := objectParams(prop); len(sub) > 0 {
			info.SubParams = sub
		}
	}
	return info
}

// jsonType accepts "string" or ["string","null"] forms.
func jsonType(v any) schema.DataType {
	switch t := v.(type) {
	case string:
		return schema.DataType(t)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "null" {
				return schema.DataType(s)
			}
		}
	}
	return schema.Object
}
