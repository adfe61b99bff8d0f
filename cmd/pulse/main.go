// Command pulse ranks Hacker News discussion topics by combining mention
// velocity with co-occurrence graph centrality.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openpulse/pulse/internal/config"
	"github.com/openpulse/pulse/internal/hn"
	"github.com/openpulse/pulse/internal/mcp"
	"github.com/openpulse/pulse/internal/runner"
	"github.com/openpulse/pulse/internal/store"
	"github.com/openpulse/pulse/internal/topics"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runRun(os.Args[2:])
	case "snapshot":
		err = runSnapshot(os.Args[2:])
	case "topics":
		err = runTopics(os.Args[2:])
	case "clusters":
		err = runClusters(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("pulse %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pulse — community topic ranking by velocity and graph centrality

Usage:
  pulse run        [--config <path>]        Fetch, score, and print ranked topics
  pulse snapshot   [--config <path>] [--force]
                                            Capture topic metrics only
  pulse topics     [--config <path>]        Print the latest scoring run
  pulse clusters   [--config <path>]        Print clusters from the latest run
  pulse serve      [--config <path>]        Serve pulse tools over MCP stdio
  pulse config     [--config <path>]        Print the resolved configuration
  pulse version                             Print version`)
}

type cliOptions struct {
	configPath string
	force      bool
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a path")
			}
			i++
			opts.configPath = args[i]
		case args[i] == "--force" || args[i] == "-f":
			opts.force = true
		case strings.HasPrefix(args[i], "-"):
			return opts, fmt.Errorf("unknown flag: %s", args[i])
		default:
			return opts, fmt.Errorf("unexpected argument: %s", args[i])
		}
	}
	return opts, nil
}

func setup(opts cliOptions) (config.Config, *store.Store, *runner.Runner, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, nil, nil, err
	}

	st, err := store.NewStore(store.StoreConfig{
		DBPath:           config.ExpandPath(cfg.DBPath),
		SnapshotInterval: snapshotInterval(cfg),
		Retention:        cfg.Snapshot.Retention,
	})
	if err != nil {
		return cfg, nil, nil, err
	}

	r := runner.New(st, cfg, hn.NewClient())
	return cfg, st, r, nil
}

func snapshotInterval(cfg config.Config) time.Duration {
	return time.Duration(cfg.Snapshot.IntervalMinutes) * time.Minute
}

func runRun(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	_, st, r, err := setup(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := r.Run(context.Background())
	if err != nil {
		return err
	}

	printRun(run)
	return nil
}

func runSnapshot(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	_, st, r, err := setup(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, saved, topicCount, err := r.Snapshot(context.Background(), opts.force)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Println("Snapshot skipped — interval not elapsed (use --force to override)")
		return nil
	}
	fmt.Printf("Saved snapshot %s with %d topics at %s\n",
		meta.ID, topicCount, meta.CapturedAt.Format(time.RFC3339))
	return nil
}

func runTopics(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	_, st, _, err := setup(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LatestRun(context.Background())
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("No scoring runs yet — use `pulse run` first")
		return nil
	}

	printRun(run)
	return nil
}

func runClusters(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	_, st, _, err := setup(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LatestRun(context.Background())
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Println("No scoring runs yet — use `pulse run` first")
		return nil
	}

	for i, cluster := range run.Result.Clusters {
		fmt.Printf("Cluster %d (collective velocity %.2f): %s\n",
			i+1, cluster.CollectiveVelocity, strings.Join(cluster.TopicIDs, ", "))
	}
	if len(run.Result.Clusters) == 0 {
		fmt.Println("No clusters in latest run")
	}
	return nil
}

func runServe(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	_, st, r, err := setup(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	s := mcp.NewServer(mcp.ServerConfig{
		Store:   st,
		Runner:  r,
		Version: version,
	})
	return mcpserver.ServeStdio(s)
}

func runConfig(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	fmt.Printf("db_path:             %s\n", cfg.DBPath)
	fmt.Printf("fetch_limit:         %d\n", cfg.FetchLimit)
	fmt.Printf("velocity_cap:        %g\n", cfg.Scoring.VelocityCap)
	fmt.Printf("damping:             %g\n", cfg.Scoring.Damping)
	fmt.Printf("max_iterations:      %d\n", cfg.Scoring.MaxIterations)
	fmt.Printf("max_authors:         %d (0 = derive from capture)\n", cfg.Scoring.MaxAuthors)
	fmt.Printf("weights:             velocity=%.2f eigenvector=%.2f betweenness=%.2f pagerank=%.2f authors=%.2f\n",
		cfg.Scoring.Weights.Velocity, cfg.Scoring.Weights.Eigenvector,
		cfg.Scoring.Weights.Betweenness, cfg.Scoring.Weights.PageRank, cfg.Scoring.Weights.Authors)
	fmt.Printf("min_shared_authors:  %d\n", cfg.Aggregation.MinSharedAuthors)
	fmt.Printf("window_hours:        %d\n", cfg.Aggregation.WindowHours)
	fmt.Printf("snapshot_interval:   %dm\n", cfg.Snapshot.IntervalMinutes)
	fmt.Printf("snapshot_retention:  %d\n", cfg.Snapshot.Retention)
	return nil
}

func printRun(run *store.Run) {
	fmt.Printf("Run %s at %s (direction=%s", run.ID, run.CapturedAt.Format(time.RFC3339), run.Result.DirectionPolicy)
	if !run.Result.EigenvectorConverged {
		fmt.Print(", eigenvector did not converge")
	}
	if !run.Result.PageRankConverged {
		fmt.Print(", pagerank did not converge")
	}
	fmt.Println(")")
	fmt.Println()

	fmt.Printf("%-4s %-24s %-8s %-8s %-8s %-8s %-6s\n",
		"Rank", "Topic", "Score", "Veloc", "Mentions", "Authors", "ΔRank")
	for _, sc := range run.Result.Scores {
		delta := sc.MentionRank - sc.PulseRank
		deltaStr := fmt.Sprintf("%+d", delta)
		if delta == 0 {
			deltaStr = "="
		}
		fmt.Printf("%-4d %-24s %-8.4f %-8.2f %-8d %-8d %-6s\n",
			sc.PulseRank, topics.Label(sc.TopicID), sc.Score, sc.Velocity,
			sc.MentionCount, sc.UniqueAuthors, deltaStr)
	}
}
