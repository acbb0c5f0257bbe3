package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-mail/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 30 * time.Second

// Server exposes archive ingestion, attachment extraction and mailbox
// reads to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer builds the server. Without ports.Mailbox the mailbox list
// is empty and message and attachment resources are not found.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "sercha-mail",
		Title:   "Sercha mail archive",
		Version: Version,
	}

	s := &Server{ports: ports}
	s.server = mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: s.instructions(),
	})

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client how the tools fit together.
func (s *Server) instructions() string {
	var b strings.Builder
	b.WriteString("Call ingest_archive with the path of a .pst or .mbox file to load it into a new mailbox. ")
	b.WriteString("Attachments are stored without text; call extract_pending afterwards, ")
	b.WriteString("or extract_attachment for a single attachment ID.")
	if s.ports.Mailbox != nil {
		b.WriteString(" Read " + uriScheme + "mailboxes to list mailboxes, then follow the message and attachment resources.")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: http shutdown: %v", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
