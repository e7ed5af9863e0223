package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/engine"
	guardmcp "github.com/ppiankov/guardmap/internal/mcp"
)

var mcpNoAudit bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpNoAudit, "no-audit", false, "Do not record check decisions to the decision log")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs guardmap as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: guardmap_check, guardmap_test, guardmap_map,\n" +
		"guardmap_gaps, guardmap_frameworks.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	var opts []engine.Option
	if !mcpNoAudit && cfg.AuditLog != "" {
		log, err := audit.Open(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer log.Close()
		opts = append(opts, engine.WithAudit(log))
	}

	srv := guardmcp.New(guardmcp.Config{
		PolicyPath: cfg.Policies,
		Version:    version,
	}, newEngine(opts...))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintln(os.Stderr, "guardmap MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Policies: %s\n\n", cfg.Policies)

	return srv.Run(ctx)
}
