package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldsim/internal/store"
	"worldsim/internal/world"
)

type Options struct {
	// SavePath is where save_world writes when no path is given.
	SavePath string
	// Store, when set, also receives save_world snapshots by slot.
	Store  store.Store
	Logger *slog.Logger
}

type Server struct {
	runner *world.Runner
	opts   Options
	logger *slog.Logger
	mcp    *sdk.Server
}

func NewServer(runner *world.Runner, opts Options, version string) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner: runner,
		opts:   opts,
		logger: logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldsim",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
