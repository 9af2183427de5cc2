package mcp

// Implementation Plan:
// 1. MCPServer struct with loader, resolver, navigator and watcher
// 2. NewMCPServer - creates the line cache, registers tools, creates watcher
// 3. Serve - starts MCP server on stdio with graceful shutdown
// 4. Graceful shutdown on SIGTERM/SIGINT
// 5. Clean error handling and logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kyrylo/fast-method-source/internal/loader"
	"github.com/kyrylo/fast-method-source/internal/navigation"
	"github.com/kyrylo/fast-method-source/internal/source"
	"github.com/kyrylo/fast-method-source/internal/watcher"
)

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	config  *ServerConfig
	loader  *loader.Loader
	watcher *watcher.Watcher
	mcp     *server.MCPServer
}

// NewMCPServer creates a new MCP server with the given configuration.
func NewMCPServer(config *ServerConfig, version string) (*MCPServer, error) {
	if config == nil {
		config = DefaultServerConfig()
	}

	files, err := loader.New(config.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	resolver := source.NewResolver(files, source.WithWindow(config.Window))

	mcpServer := server.NewMCPServer(
		"fms-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	AddSourceTools(mcpServer, resolver, config.ProjectPath)
	AddListCallablesTool(mcpServer, navigation.New(), resolver, config.ProjectPath)

	s := &MCPServer{
		config: config,
		loader: files,
		mcp:    mcpServer,
	}

	if config.Watch {
		var opts []watcher.Option
		if len(config.Extensions) > 0 {
			opts = append(opts, watcher.WithExtensions(config.Extensions...))
		}
		s.watcher, err = watcher.New([]string{config.ProjectPath}, opts...)
		if err != nil {
			files.Close()
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
	}

	return s, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Changed files are dropped from the line cache
	if s.watcher != nil {
		s.watcher.InvalidateOnChange(ctx, s.loader)
		defer s.watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *MCPServer) Close() error {
	var err error
	if s.watcher != nil {
		err = s.watcher.Stop()
	}
	if s.loader != nil {
		stats := s.loader.Stats()
		log.Printf("Line cache: %d hits, %d misses, %d evictions", stats.Hits, stats.Misses, stats.Evictions)
		s.loader.Close()
	}
	return err
}
