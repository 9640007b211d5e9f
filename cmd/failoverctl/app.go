package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/shrtyk/raft-failover/api"
	"github.com/shrtyk/raft-failover/coordinator"
	"github.com/shrtyk/raft-failover/failover"
	"github.com/shrtyk/raft-failover/pkg/config"
	"github.com/shrtyk/raft-failover/pkg/logger"
	"github.com/shrtyk/raft-failover/pkg/metrics"
	"github.com/shrtyk/raft-failover/pkg/transport"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const shutdownTimeout = 5 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "failoverctl",
		Usage:   "Send commands to the leader of a cluster",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			nodesCommand(),
			submitCommand(),
			readCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the cluster configuration file",
			EnvVars: []string{"FAILOVER_CONFIG"},
			Value:   "failover.yaml",
		},
		&cli.StringFlag{
			Name:  "log-env",
			Usage: "Logger environment: prod, staging, dev (overrides the config file)",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address while the command runs",
		},
	}
}

func nodesCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "List the configured nodes, marking the current leader belief",
		Action: func(c *cli.Context) error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			current := s.proxy.CurrentNodeID()
			for _, n := range s.nodes {
				mark := " "
				if n.NodeID() == current {
					mark = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %s\t%s\n", mark, n.NodeID(), n.Address())
			}
			return nil
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit a command to the leader",
		ArgsUsage: "<payload>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("submit expects exactly one payload argument")
			}
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.coord.Submit(c.Context, []byte(c.Args().First()))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "term=%d index=%d leader=%s\n", res.Term, res.LogIndex, s.proxy.CurrentNodeID())
			return nil
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Run a read-only query on the leader",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return errors.New("read expects at most one query argument")
			}
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.close()

			data, err := s.coord.Read(c.Context, []byte(c.Args().First()))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, string(data))
			return nil
		},
	}
}

type session struct {
	logger  *slog.Logger
	nodes   []api.NodeDescriptor
	proxy   *failover.Provider[*grpc.ClientConn]
	coord   *coordinator.Coordinator
	metrics *http.Server
}

func openSession(c *cli.Context) (*session, error) {
	file, err := config.NewLoader(config.WithConfigFile(c.String("config"))).Load()
	if err != nil {
		return nil, err
	}
	cfg, err := file.FailoverConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-env") {
		if cfg.Log.Env, err = logger.ParseEnv(c.String("log-env")); err != nil {
			return nil, err
		}
	}
	log := logger.NewLogger(cfg.Log.Env, false)

	reg := metrics.NewRegistry(file.ServiceID)
	b := failover.NewProviderBuilder[*grpc.ClientConn](file, transport.NewGRPCDialer()).
		WithConfig(cfg).
		WithLogger(log).
		WithClassifier(transport.NewStatusClassifier()).
		WithObserver(reg)
	proxy, err := b.Build()
	if err != nil {
		return nil, err
	}
	p := proxy.(*failover.Provider[*grpc.ClientConn])

	s := &session{
		logger: log,
		nodes:  p.Nodes(),
		proxy:  p,
		coord:  coordinator.New(p, cfg, log),
	}

	ids := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		ids = append(ids, n.NodeID())
	}
	reg.SetCurrentNode(p.CurrentNodeID(), ids)

	if addr := c.String("metrics-addr"); addr != "" {
		if err := s.serveMetrics(addr, reg); err != nil {
			_ = s.coord.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) serveMetrics(addr string, reg *metrics.Registry) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	s.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		if err := s.metrics.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", logger.ErrAttr(err))
		}
	}()
	s.logger.Info("serving metrics", slog.String("address", lis.Addr().String()))
	return nil
}

func (s *session) close() {
	if err := s.coord.Close(); err != nil {
		s.logger.Warn("failed to close coordinator", logger.ErrAttr(err))
	}
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.logger.Warn("failed to stop metrics server", logger.ErrAttr(err))
	}
}
