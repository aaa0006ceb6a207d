// Command syncctl is a thin operational CLI over the repo façade, loading
// its identity/adapters/permission mode from a YAML file via
// internal/config. Built with github.com/urfave/cli/v2, the framework the
// retrieval pack's own node binaries (prysm's beacon-chain/node) are
// driven by.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jabolina/go-sync/adapter"
	"github.com/jabolina/go-sync/adapter/boltstore"
	"github.com/jabolina/go-sync/adapter/relt"
	"github.com/jabolina/go-sync/adapter/ws"
	"github.com/jabolina/go-sync/internal/config"
	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/repo"
)

// textSchema is the only document shape this binary knows how to build,
// since document.TextDocument is the sole concrete DocumentHandle shipped
// in this repo (spec §1 leaves the CRDT library as an external
// collaborator; a real embedder would pass its own factory/schema here).
const textSchema = "text/plain"

var configFlag = &cli.StringFlag{
	Name:     "config",
	Aliases:  []string{"c"},
	Usage:    "path to a synchronizer YAML config file",
	Required: true,
}

func main() {
	app := &cli.App{
		Name:  "syncctl",
		Usage: "operate a go-sync replica from the command line",
		Commands: []*cli.Command{
			getCommand,
			deleteCommand,
			readyStatesCommand,
			awaitSyncCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "fetch a document and print its exported snapshot",
	ArgsUsage: "<doc-id>",
	Flags:     []cli.Flag{configFlag},
	Action: func(c *cli.Context) error {
		docId := model.DocId(c.Args().First())
		if docId == "" {
			return cli.Exit("get requires a doc-id argument", 1)
		}
		r, stop, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer stop()

		doc, err := r.Get(docId, textSchema)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		data, err := doc.Handle().ExportSnapshot()
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("%s\n", data)
		return nil
	},
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "purge a document from this replica's local cache (no propagation)",
	ArgsUsage: "<doc-id>",
	Flags:     []cli.Flag{configFlag},
	Action: func(c *cli.Context) error {
		docId := model.DocId(c.Args().First())
		if docId == "" {
			return cli.Exit("delete requires a doc-id argument", 1)
		}
		r, stop, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer stop()
		r.Delete(docId)
		return nil
	},
}

var readyStatesCommand = &cli.Command{
	Name:      "ready-states",
	Usage:     "print the last known ready-state set for a document",
	ArgsUsage: "<doc-id>",
	Flags:     []cli.Flag{configFlag},
	Action: func(c *cli.Context) error {
		docId := model.DocId(c.Args().First())
		if docId == "" {
			return cli.Exit("ready-states requires a doc-id argument", 1)
		}
		r, stop, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer stop()

		if _, err := r.Get(docId, textSchema); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		for _, s := range r.ReadyStates(docId) {
			fmt.Printf("channel=%d kind=%s peer=%s status=%s\n", s.ChannelId, s.Kind, s.PeerId, s.Status)
		}
		return nil
	},
}

var awaitSyncCommand = &cli.Command{
	Name:      "await-sync",
	Usage:     "block until a channel of the given kind reports synced for a document",
	ArgsUsage: "<doc-id>",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{Name: "kind", Usage: "network or storage", Value: "network"},
		&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
	},
	Action: func(c *cli.Context) error {
		docId := model.DocId(c.Args().First())
		if docId == "" {
			return cli.Exit("await-sync requires a doc-id argument", 1)
		}
		kind, err := parseChannelKind(c.String("kind"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		r, stop, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer stop()

		if _, err := r.Get(docId, textSchema); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		if err := r.WaitForSync(ctx, docId, kind); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Println("synced")
		return nil
	},
}

func parseChannelKind(s string) (model.ChannelKind, error) {
	switch s {
	case "network":
		return model.ChannelNetwork, nil
	case "storage":
		return model.ChannelStorage, nil
	default:
		return 0, fmt.Errorf("unknown channel kind %q", s)
	}
}

// bootstrap loads the config named by the --config flag, builds a Repo,
// registers every configured adapter, and starts its event loop. The
// returned stop func blocks until the repo has drained shutdown.
func bootstrap(c *cli.Context) (*repo.Repo, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 1)
	}

	log := logging.NewDefaultLogger()
	cfg.ApplyLogLevel(log)

	factory := func(docId model.DocId) model.DocumentHandle {
		return document.NewTextDocument(docId, string(cfg.Identity().PeerId))
	}

	r := repo.New(cfg.Identity(), cfg.Rules(), factory, log, cfg.HeartbeatInterval)

	for _, ac := range cfg.Adapters {
		a, err := buildAdapter(cfg, ac, log)
		if err != nil {
			return nil, nil, cli.Exit(err.Error(), 1)
		}
		r.RegisterAdapter(a)
	}

	r.Start()
	return r, r.Stop, nil
}

func buildAdapter(cfg *config.Config, ac config.AdapterConfig, log logging.Logger) (adapter.Adapter, error) {
	switch ac.Kind {
	case "relt":
		return relt.Join(string(cfg.Identity().PeerId), ac.Cluster, log)
	case "ws":
		if ac.Dial != "" {
			return ws.Dial(string(cfg.Identity().PeerId), ac.Dial, log)
		}
		return nil, fmt.Errorf("ws adapter requires a dial URL in this binary; server-side accept is embedder-driven")
	case "bolt":
		return boltstore.Open(string(cfg.Identity().PeerId), ac.Path)
	default:
		return nil, fmt.Errorf("unknown adapter kind %q", ac.Kind)
	}
}
