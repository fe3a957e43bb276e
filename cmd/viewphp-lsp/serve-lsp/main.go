package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/viewphp-lsp/pkg/debug"
	"github.com/walteh/viewphp-lsp/pkg/lsp"
)

type Handler struct {
	debug bool
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin/stdout",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging and request tracing")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

type RPCLogger struct{}

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Debug().Str("rpc_params", req.ParamString()).Str("rpc_id", req.ID()).Str("rpc_method", req.Method()).Msg("client request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Debug().Str("rpc_result", res.ResultString()).Str("rpc_id", res.ID()).Msg("server response")
}

func (me *Handler) Run(ctx context.Context) error {
	opts := lsp.Options{
		Debug:   me.debug,
		Version: debug.Version(),
	}
	if me.debug {
		opts.RPCLog = &RPCLogger{}
	}

	server := lsp.NewServer(ctx, opts)

	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil {
		return errors.Errorf("running language server: %w", err)
	}

	return nil
}
