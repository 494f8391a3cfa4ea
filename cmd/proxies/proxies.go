// Package proxies implements the proxy pool inspection command.
package proxies

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sellerscout/internal/bootstrap"
	"sellerscout/internal/proxy"
)

var refresh bool

// Command returns the proxies command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxies",
		Short: "List the proxy pool",
		RunE:  runProxies,
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch a fresh list from the provider")

	return cmd
}

func runProxies(cmd *cobra.Command, _ []string) error {
	deps, err := bootstrap.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	pool := proxy.NewPool(proxy.Config{
		BanTTL:    deps.Config.Proxy.BanTTL,
		CacheTTL:  deps.Config.Proxy.CacheTTL,
		CacheFile: deps.Config.Proxy.CacheFile,
	}, proxy.NewAPIProvider(deps.Config.Proxy.APIKey), deps.Logger)

	if refresh {
		if refreshErr := pool.Refresh(cmd.Context()); refreshErr != nil {
			return fmt.Errorf("failed to refresh proxy list: %w", refreshErr)
		}
	} else if _, nextErr := pool.Next(""); nextErr != nil {
		return fmt.Errorf("no proxies available: %w", nextErr)
	}

	endpoints := pool.Endpoints()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Endpoint"})
	for i, endpoint := range endpoints {
		t.AppendRow(table.Row{i + 1, endpoint})
	}
	t.Render()

	fmt.Printf("%d proxies.\n", len(endpoints))
	return nil
}
