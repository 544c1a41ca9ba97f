package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"drone-map/algo"
	"drone-map/client"
	"drone-map/config"
	"drone-map/mapstate"
	"drone-map/utils"
)

type app struct {
	client *client.Client
	store  *mapstate.Store
	out    io.Writer
}

func rootCmd(a *app) *cobra.Command {
	var (
		server   string
		session  string
		token    string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "mapctl",
		Short:         "Place points and connect them with lines on the shared map",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if server != "" {
				cfg.ServerURL = server
			}
			if session != "" {
				cfg.SessionFile = session
			}
			if token != "" {
				cfg.Token = token
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return a.open(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&server, "server", "", "Server base URL (default $MAP_SERVER_URL)")
	cmd.PersistentFlags().StringVar(&session, "session", "", "Session file path (default $MAP_SESSION_FILE)")
	cmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for write calls (default $MAP_TOKEN)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		a.pointsCmd(),
		a.linesCmd(),
		a.addPointCmd(),
		a.addPointTextCmd(),
		a.addLineCmd(),
		a.removePointCmd(),
		a.removeLineCmd(),
		a.saveCmd(),
		a.unsaveCmd(),
		a.restoreCmd(),
		a.clearCmd(),
		a.pullCmd(),
		a.routeCmd(),
		a.loginCmd(),
		hashPasswordCmd(),
	)
	return cmd
}

func (a *app) open(ctx context.Context, cfg config.Client) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	a.client = client.New(cfg.ServerURL, cfg.Token)
	queue := mapstate.NewQueue(cfg.QueueSize, cfg.RequestTimeout, logger)
	store, err := mapstate.Open(ctx, mapstate.NewFileSession(cfg.SessionFile), a.client, queue, logger)
	if err != nil {
		queue.Close()
		return err
	}
	a.store = store
	return nil
}

// close 等待队列中的远端调用执行完毕
func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func (a *app) pointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "List current and saved points",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printPoints("Current Points", a.store.Points())
			a.printPoints("Saved Points", a.store.SavedPoints())
		},
	}
}

func (a *app) linesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lines",
		Short: "List current and saved lines with their length",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printLines("Current Lines", a.store.Lines())
			a.printLines("Saved Lines", a.store.SavedLines())
		},
	}
}

func (a *app) addPointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-point LAT LNG",
		Short: "Add a point at the given coordinates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("lat: %w", err)
			}
			lng, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("lng: %w", err)
			}
			fmt.Fprintln(a.out, a.store.AddPoint(lat, lng))
			return nil
		},
	}
}

func (a *app) addPointTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-point-text LAT LNG",
		Short: "Add a point from text input, validating the coordinate ranges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.store.AddPointFromText(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}

func (a *app) addLineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-line START_POINT END_POINT",
		Short: "Connect two points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if !a.store.HasPoint(id) {
					return fmt.Errorf("unknown point %q", id)
				}
			}
			id, ok := a.store.AddLine(args[0], args[1])
			if !ok {
				fmt.Fprintln(a.out, "line already exists")
				return nil
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}

func (a *app) removePointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-point POINT",
		Short: "Remove a point and every line attached to it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.store.RemovePoint(args[0])
		},
	}
}

func (a *app) removeLineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-line LINE",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.store.RemoveLine(args[0])
		},
	}
}

func (a *app) saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save ID",
		Short: "Bookmark a point (or a line with --line)",
		Args:  cobra.ExactArgs(1),
	}
	line := cmd.Flags().Bool("line", false, "ID is a line")
	cmd.Run = func(cmd *cobra.Command, args []string) {
		if *line {
			a.store.SaveLine(args[0])
		} else {
			a.store.SavePoint(args[0])
		}
	}
	return cmd
}

func (a *app) unsaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unsave ID",
		Short: "Delete a bookmark (a line with --line)",
		Args:  cobra.ExactArgs(1),
	}
	line := cmd.Flags().Bool("line", false, "ID is a line")
	cmd.Run = func(cmd *cobra.Command, args []string) {
		if *line {
			a.store.DeleteSavedLine(args[0])
		} else {
			a.store.DeleteSavedPoint(args[0])
		}
	}
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Put a bookmarked point (or line with --line) back on the map (local only)",
		Args:  cobra.ExactArgs(1),
	}
	line := cmd.Flags().Bool("line", false, "ID is a line")
	cmd.Run = func(cmd *cobra.Command, args []string) {
		if *line {
			a.store.RestoreLine(args[0])
		} else {
			a.store.RestorePoint(args[0])
		}
	}
	return cmd
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every point and line, locally and on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.ClearAll(cmd.Context())
		},
	}
}

func (a *app) pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the local session with the server's visible points and lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Pull(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Points: %d\nLines: %d\n", len(a.store.Points()), len(a.store.Lines()))
			return nil
		},
	}
}

func (a *app) routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route FROM_POINT TO_POINT",
		Short: "Shortest path between two points along the drawn lines",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			g := algo.BuildGraph(a.store.Points(), a.store.Lines())
			fmt.Fprint(a.out, algo.FormatPath(g.Dijkstra(args[0], args[1])))
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login USERNAME PASSWORD",
		Short: "Obtain a bearer token (export it as MAP_TOKEN)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.client.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print a bcrypt hash for MAP_ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *app) printPoints(title string, ids []string) {
	fmt.Fprintf(a.out, "%s (%d)\n", title, len(ids))
	for _, id := range ids {
		fmt.Fprintf(a.out, "  %s\n", id)
	}
}

func (a *app) printLines(title string, ids []string) {
	fmt.Fprintf(a.out, "%s (%d)\n", title, len(ids))
	for _, id := range ids {
		length, err := utils.LineLength(id)
		if err != nil {
			fmt.Fprintf(a.out, "  %s\n", id)
			continue
		}
		fmt.Fprintf(a.out, "  %s  %.1f m\n", id, length)
	}
}
