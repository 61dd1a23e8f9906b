package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/busontime/busontime/internal/dashboard"
)

var rootCmd = &cobra.Command{
	Use:          "dashboard",
	Short:        "Shows the next bus for each favorite",
	Long:         "Queries a busontime server for every configured favorite and prints the results.",
	SilenceUsage: true,
	RunE:         run,
}

var (
	serverURL     string
	favoritesPath string
	locale        string
	interactive   bool
	timeout       time.Duration
	verbose       bool
)

func init() {
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:3000", "busontime server URL")
	rootCmd.Flags().StringVarP(&favoritesPath, "favorites", "f", envOr("FAVORITES_PATH", "favorites.json"), "Favorites file (JSON or YAML)")
	rootCmd.Flags().StringVarP(&locale, "locale", "l", envOr("LANG", "en"), "Display locale (en, ko)")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Keep running; Enter refreshes, q quits")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (0 waits for the transport)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log failed lookups")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	favorites, err := dashboard.LoadFavorites(favoritesPath)
	if err != nil {
		return errors.Wrapf(err, "loading %s", favoritesPath)
	}

	out := &syncWriter{w: cmd.OutOrStdout()}
	formatter := dashboard.NewFormatter(strings.Split(locale, ".")[0])
	d := dashboard.New(favorites, dashboard.NewProxyClient(serverURL, timeout))

	ctx := cmd.Context()
	if !interactive {
		snap, err := d.Refresh(ctx)
		if rerr := dashboard.Render(out, snap, formatter); rerr != nil {
			return rerr
		}
		return err
	}

	return runInteractive(ctx, cmd.InOrStdin(), out, d, formatter)
}

func runInteractive(ctx context.Context, in io.Reader, out *syncWriter, d *dashboard.Dashboard, f *dashboard.Formatter) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	refresh := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := d.Refresh(ctx)
			if errors.Is(err, dashboard.ErrRefreshInProgress) {
				fmt.Fprintln(out, f.Loading())
				return
			}
			dashboard.Render(out, snap, f)
			fmt.Fprintln(out, "[Enter] refresh  [q] quit")
		}()
	}

	refresh()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
			return nil
		}
		refresh()
	}
	return scanner.Err()
}

// syncWriter serializes renders from overlapping refresh goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
