package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/conorfennell/flashdeck/internal/app"
	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/importer"
	"github.com/conorfennell/flashdeck/internal/logging"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/sync"
	"github.com/conorfennell/flashdeck/internal/web"
)

const usage = `Usage: flashdeck <command> [flags]

Commands:
  serve                       Serve the HTTP API
  list [query]                List cards, optionally filtered
  add --front F --back B      Add a card (--tags "a, b")
  edit <id> --front F ...     Replace a card's fields
  delete <id>                 Delete a card
  export [-o file]            Write the collection as JSON
  import <path|git-url>       Merge cards from a file, directory or git repository
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command works against.
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	store storage.Store
	app   *app.App
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, args := args[0], args[1:]

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	config.RegisterFlags(fs)

	var (
		front, back, tags *string
		output, file      *string
		format            *string
	)
	switch cmd {
	case "serve":
		fs.String("addr", ":8080", "Address to listen on")
		fs.Bool("seed", true, "Seed sample cards into an empty collection")
	case "add", "edit":
		front = fs.String("front", "", "Card front")
		back = fs.String("back", "", "Card back")
		tags = fs.String("tags", "", "Comma separated tags")
	case "export":
		output = fs.StringP("output", "o", "", "Write to this file instead of stdout")
	case "import":
		file = fs.String("file", "", "Deck path inside a git repository")
		format = fs.String("format", "", "Force the payload format: json, yaml or md")
		fs.Int64("max-bytes", importer.DefaultMaxBytes, "Largest accepted payload in bytes")
		fs.String("repos-dir", "repos", "Where git repositories are checked out")
	case "list", "delete":
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(fs)
	if err != nil {
		return err
	}
	defer e.store.Close()

	switch cmd {
	case "serve":
		return serve(e)
	case "list":
		return list(e, out, strings.Join(fs.Args(), " "))
	case "add":
		card, err := e.app.CreateCard(*front, *back, app.ParseTags(*tags))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", e.app.Status(), card.ID)
		return nil
	case "edit":
		if fs.NArg() != 1 {
			return errors.New("edit needs exactly one card id")
		}
		id := fs.Arg(0)
		prefill, err := e.app.EditCard(id)
		if err != nil {
			return err
		}
		// Unset flags keep the card's current values.
		f, b, t := prefill.Front, prefill.Back, prefill.Tags
		if fs.Changed("front") {
			f = *front
		}
		if fs.Changed("back") {
			b = *back
		}
		if fs.Changed("tags") {
			t = *tags
		}
		if _, err := e.app.SaveEdit(id, f, b, app.ParseTags(t)); err != nil {
			return err
		}
		fmt.Fprintln(out, e.app.Status())
		return nil
	case "delete":
		if fs.NArg() != 1 {
			return errors.New("delete needs exactly one card id")
		}
		if err := e.app.DeleteCard(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintln(out, e.app.Status())
		return nil
	case "export":
		return export(e, out, *output)
	case "import":
		if fs.NArg() != 1 {
			return errors.New("import needs exactly one source")
		}
		opts := sync.Options{File: *file}
		if *format != "" {
			f, err := importer.ParseFormat(*format)
			if err != nil {
				return err
			}
			opts.Format = f
		}
		runner := sync.NewRunner(e.app, e.cfg.Import.ReposDir, e.log)
		res, err := runner.Run(fs.Arg(0), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Import complete: %d accepted, %d dropped, %d cards total\n",
			res.Accepted, res.Dropped, res.Total)
		return nil
	}
	return nil
}

func setup(fs *pflag.FlagSet) (*env, error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(log)

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.Key)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	log.Debug("storage opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	repo := deck.New(store, deck.WithLogger(log))
	a := app.New(repo,
		app.WithLogger(log),
		app.WithMaxImportBytes(cfg.Import.MaxBytes),
	)
	return &env{cfg: cfg, log: log, store: store, app: a}, nil
}

func serve(e *env) error {
	if e.cfg.Seed {
		if _, err := e.app.Seed(); err != nil {
			return err
		}
	}
	e.log.Info("listening", "addr", e.cfg.Server.Addr)
	return http.ListenAndServe(e.cfg.Server.Addr, web.NewServer(e.app, e.log))
}

func list(e *env, out io.Writer, query string) error {
	cards, err := e.app.SetSearchFilter(query)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Fprintln(out, "No cards.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFRONT\tBACK\tTAGS")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, oneLine(c.Front), oneLine(c.Back), app.JoinTags(c.Tags))
	}
	return tw.Flush()
}

func export(e *env, out io.Writer, path string) error {
	data, err := e.app.Export()
	if err != nil {
		return err
	}
	if path == "" {
		_, err := fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(out, "Exported to %s\n", path)
	return nil
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
