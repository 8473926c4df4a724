package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/pretty"

	"github.com/dshills/reflex-emulator/internal/config"
	"github.com/dshills/reflex-emulator/internal/config/watcher"
	"github.com/dshills/reflex-emulator/internal/configstore"
)

// Command names accepted by Run.
const (
	CommandShow   = "show"
	CommandBackup = "backup"
	CommandSet    = "set"
	CommandReset  = "reset"
	CommandFields = "fields"
	CommandWatch  = "watch"
)

// Usage lists the commands.
const Usage = `commands:
  show               print the current settings
  backup             restore, then write the settings back with a new timestamp
  set <field> <json> change one setting and back it up
  reset              delete the backup and restore defaults
  fields             list the settings fields
  watch              follow the backup file until interrupted`

// Run executes the command named by args[0]. An empty args runs show.
func (app *Application) Run(ctx context.Context, args []string) error {
	if app.isClosed() {
		return ErrShutdown
	}
	cmd := CommandShow
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case CommandShow:
		err = app.Show(ctx)
	case CommandBackup:
		err = app.Backup(ctx)
	case CommandSet:
		if len(args) != 2 {
			return fmt.Errorf("%w: set <field> <json>", ErrUsage)
		}
		err = app.Set(ctx, args[0], args[1])
	case CommandReset:
		err = app.Reset(ctx)
	case CommandFields:
		err = app.Fields()
	case CommandWatch:
		err = app.Watch(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	if err != nil {
		return NewOperationError(cmd, app.store.Key(), err)
	}
	return nil
}

// Show restores the backup and prints the settings as a record.
func (app *Application) Show(ctx context.Context) error {
	if err := app.store.Restore(ctx); err != nil {
		return err
	}
	return app.printRecord()
}

// Backup restores the backup and writes it back with a new timestamp.
func (app *Application) Backup(ctx context.Context) error {
	if err := app.store.Restore(ctx); err != nil {
		return err
	}
	if err := app.store.Persist(ctx); err != nil {
		return err
	}
	ts := app.store.LastBackup()
	if ts == nil {
		return errors.New("backup written but not readable")
	}
	_, err := fmt.Fprintf(app.opts.Stdout, "backup written at %s\n",
		configstore.FormatTimestamp(*ts, app.opts.Location))
	return err
}

// Set restores the backup, sets one field from its JSON encoding and backs
// the result up.
func (app *Application) Set(ctx context.Context, field, raw string) error {
	if err := app.store.Restore(ctx); err != nil {
		return err
	}
	if err := app.store.SetField(field, []byte(raw)); err != nil {
		return err
	}
	if err := app.store.Persist(ctx); err != nil {
		return err
	}
	return app.printRecord()
}

// Reset deletes the backup and prints the defaults.
func (app *Application) Reset(ctx context.Context) error {
	if err := app.store.Reset(ctx); err != nil {
		return err
	}
	return app.printRecord()
}

// Fields prints every settings field.
func (app *Application) Fields() error {
	tw := tabwriter.NewWriter(app.opts.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tOBSERVABLE\tDESCRIPTION")
	for _, f := range app.store.Fields() {
		obs := "no"
		switch {
		case f.Observable && f.Replay:
			obs = "replay"
		case f.Observable:
			obs = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, obs, f.Description)
	}
	return tw.Flush()
}

// Watch restores the backup and restores again whenever another process
// rewrites the backup file. It returns when ctx is done.
func (app *Application) Watch(ctx context.Context) error {
	cfg := app.opts.Config
	if cfg.Storage.Backend != config.BackendFile || app.opts.Backend != nil {
		return ErrWatchUnsupported
	}
	if err := app.store.Restore(ctx); err != nil {
		return err
	}

	logger := app.logger.WithPrefix("watch")
	w, err := watcher.New(cfg.Storage.Path, func(evt watcher.Event) {
		logger.Info("backup file changed", "op", evt.Op)
		if err := app.store.Restore(ctx); err != nil {
			logger.Error("restore", "err", err)
		}
	},
		watcher.WithDebounce(cfg.Watch.Debounce()),
		watcher.WithClock(app.opts.Clock),
		watcher.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		_ = w.Close()
		return ErrShutdown
	}
	app.watcher = w
	app.initOrder = append(app.initOrder, componentWatcher)
	app.mu.Unlock()

	logger.Info("watching backup file", "path", w.Path())
	<-ctx.Done()
	return nil
}

// printRecord writes the current settings as indented JSON.
func (app *Application) printRecord() error {
	record, err := app.store.Export()
	if err != nil {
		return err
	}
	out := strings.TrimRight(string(pretty.Pretty(record)), "\n")
	_, err = io.WriteString(app.opts.Stdout, out+"\n")
	return err
}
