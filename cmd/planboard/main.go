package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"planboard/calendar"
	"planboard/clock"
	"planboard/config"
	"planboard/db"
	"planboard/engine"
	"planboard/exchange"
	"planboard/logger"
	"planboard/models"
	"planboard/ui"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, dbPath string
	var acceptManual bool

	flagSet := pflag.NewFlagSet("planboard", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "planboard.yaml", "path to the YAML configuration file")
	flagSet.StringVar(&dbPath, "db", "", "path to the SQLite database (overrides the configuration)")
	flagSet.BoolVar(&acceptManual, "accept-manual", false, "import: also apply the changes that need confirmation")
	flagSet.BoolP("version", "v", false, "show version information")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if v, _ := flagSet.GetBool("version"); v {
		fmt.Printf("planboard v%s\n", version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}

	args := flagSet.Args()
	command := ""
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	// The board draws over the terminal, so its logs go to a file
	logFile := cfg.LogFile
	if command == "" && logFile == "" {
		logFile = "planboard.log"
	}
	log, err := logger.New(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	store, err := db.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "":
		return runBoard(ctx, store, cfg, log)
	case "rebase":
		return runRebase(ctx, store, cfg, log)
	case "members":
		return listMembers(ctx, store)
	case "add-member":
		return addMember(ctx, store, cfg, log, args)
	case "export":
		return exportProjects(ctx, store, cfg, log, args)
	case "import":
		return importProjects(ctx, store, cfg, log, args, acceptManual)
	case "ticket":
		return editTicket(ctx, store, cfg, log, args)
	case "project":
		return editProject(ctx, store, cfg, log, args)
	case "refresh":
		return refresh(ctx, store, cfg, log, args)
	default:
		return fmt.Errorf("unknown command %q, see --help", command)
	}
}

// openBoard rebases the grid and gives a ticket to every new project.
func openBoard(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger) (*engine.Board, *engine.RebaseResult, error) {
	c := clock.Real()
	res, err := engine.NewRebaser(store, c, cfg, log).Run(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebase grid: %w", err)
	}
	board := engine.NewBoard(store, res.Layout, log, engine.WithClock(c))
	if err := board.Bootstrap(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to draw tickets: %w", err)
	}
	return board, res, nil
}

func runBoard(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger) error {
	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	if len(board.Layout().Members()) == 0 {
		fmt.Println("No members yet. Add one with: planboard add-member \"Ann Lee\" 50")
		return nil
	}

	p := tea.NewProgram(ui.NewModel(ctx, board, clock.Real(), cfg.DateFormat), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func runRebase(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger) error {
	_, res, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	days := res.Layout.Days()
	fmt.Printf("Board from %s to %s (%s)\n",
		calendar.Format(days[0], cfg.DateFormat),
		calendar.Format(days[len(days)-1], cfg.DateFormat),
		english.Plural(len(days), "working day", ""))
	fmt.Printf("Moved %s cells by %d rows\n", humanize.Comma(int64(res.Shifted)), res.Delta)
	total, err := store.CountCells(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s cells on the board\n", humanize.Comma(total))
	if res.Widened {
		fmt.Println("Rows were added above the usual window to keep existing tickets.")
	}
	return nil
}

func listMembers(ctx context.Context, store *db.Store) error {
	members, err := store.ListMembers(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		projects, err := store.ListProjectsByOwner(ctx, m.Name)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %3d%%  %s  %s\n", m.Name, m.FreeTimePercentage, m.Initials(),
			english.Plural(len(projects), "project", ""))
	}
	return nil
}

func addMember(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: planboard add-member <name> <free time percentage>")
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
	if err != nil {
		return fmt.Errorf("invalid percentage %q: %w", args[1], err)
	}
	name := strings.TrimSpace(args[0])

	m, err := store.GetMember(ctx, name)
	switch {
	case errors.Is(err, db.ErrNotFound):
		m = &models.Member{Name: name, FreeTimePercentage: pct}
		if err := store.AddMember(ctx, m); err != nil {
			return err
		}
		fmt.Printf("✓ Added %s (%s) at %d%%\n", m.Name, m.Initials(), pct)
		return nil
	case err != nil:
		return err
	}

	m.FreeTimePercentage = pct
	if err := store.UpdateMember(ctx, m); err != nil {
		return err
	}
	// Ticket lengths depend on the free time, so redraw them
	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	if err := board.RefreshGrid(ctx, nil, nil); err != nil {
		return err
	}
	fmt.Printf("✓ Updated %s to %d%%\n", m.Name, pct)
	return nil
}

func exportProjects(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: planboard export <member>")
	}
	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	path, n, err := exchange.New(store, board, cfg, log).Export(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("✓ Exported %s to %s\n", english.Plural(n, "project", ""), path)
	return nil
}

func importProjects(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, args []string, acceptManual bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: planboard import [--accept-manual] <member>")
	}
	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	ex := exchange.New(store, board, cfg, log)
	res, err := ex.Import(ctx, args[0])
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Println("Nothing to import.")
		return nil
	}

	w := bufio.NewWriter(os.Stdout)
	for _, p := range res.New {
		fmt.Fprintf(w, "+ new project %q\n", p.Name)
	}
	for _, m := range res.Auto {
		fmt.Fprintf(w, "  %s\n", m)
	}
	for _, m := range res.Manual {
		mark := "?"
		if acceptManual {
			mark = "!"
		}
		fmt.Fprintf(w, "%s %s\n", mark, m)
	}
	w.Flush()

	created, updated, err := ex.Apply(ctx, res, acceptManual)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s created, %s updated\n",
		english.Plural(created, "project", ""), english.Plural(updated, "field", ""))
	if !acceptManual && len(res.Manual) > 0 {
		fmt.Printf("%s left aside, run again with --accept-manual to apply them\n",
			english.Plural(len(res.Manual), "change", ""))
	}
	return nil
}

// editTicket sets ticket fields given as name=value pairs, then redraws it.
func editTicket(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: planboard ticket <id> [field=value...]")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q: %w", args[0], err)
	}
	fields := models.NewTicketFields()

	if len(args) == 1 {
		t, err := store.GetTicket(ctx, uint(id))
		if err != nil {
			return err
		}
		for _, f := range fields.Fields() {
			fmt.Printf("%-12s %s\n", fields.Name(f), fields.Get(f, t))
		}
		return nil
	}

	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	err = board.EditTicket(ctx, uint(id), func(t *models.Ticket) error {
		for _, pair := range args[1:] {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("expected field=value, got %q", pair)
			}
			f, ok := fields.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown ticket field %q", name)
			}
			if err := fields.Set(f, t, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Ticket %d updated\n", id)
	return nil
}

// editProject shows or edits a project through its field table. Computed dates
// stay read-only.
func editProject(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: planboard project <id> [field=value...]")
	}
	fields := models.NewProjectFields(cfg.DateFormat)

	if len(args) == 1 {
		p, err := store.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		for _, f := range fields.Fields() {
			fmt.Printf("%-12s %s\n", fields.Name(f), fields.Get(f, p))
		}
		statuses, err := store.ListStatuses(ctx)
		if err != nil {
			return err
		}
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = st.Name
		}
		fmt.Printf("\nstatuses: %s\n", english.WordSeries(names, "or"))
		return nil
	}

	// The store has a single connection, so statuses are checked before the
	// edit transaction opens.
	for _, pair := range args[1:] {
		if name, value, _ := strings.Cut(pair, "="); name == "status" && value != "" {
			if _, err := store.GetStatus(ctx, value); err != nil {
				return err
			}
		}
	}

	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	err = board.EditProject(ctx, args[0], func(p *models.Project) error {
		for _, pair := range args[1:] {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("expected field=value, got %q", pair)
			}
			f, ok := fields.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown project field %q", name)
			}
			if err := fields.Set(f, p, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Project %s updated\n", args[0])
	return nil
}

// refresh redraws the tickets of the given projects, or every ticket.
func refresh(ctx context.Context, store *db.Store, cfg config.Config, log *zap.Logger, projectIDs []string) error {
	board, _, err := openBoard(ctx, store, cfg, log)
	if err != nil {
		return err
	}
	if len(projectIDs) > 0 {
		for _, id := range projectIDs {
			if err := board.RefreshProject(ctx, id); err != nil {
				return err
			}
		}
		fmt.Printf("✓ Refreshed %s\n", english.Plural(len(projectIDs), "project", ""))
		return nil
	}

	err = board.RefreshGrid(ctx, nil, func(done, total int) {
		fmt.Printf("\rRefreshing tickets %s/%s", humanize.Comma(int64(done)), humanize.Comma(int64(total)))
	})
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Println("✓ Grid refreshed")
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Printf(`planboard v%s - team planning board

USAGE:
    planboard [flags] [command]

COMMANDS:
    (none)                      Open the board
    rebase                      Align the grid on today and print the window
    members                     List the team members
    add-member <name> <pct>     Add a member, or change their free time percentage
    export <member>             Write the member's projects to "Taches <initials>.json"
    import <member>             Read the member's file and apply the changes
    ticket <id> [field=value]   Show or edit a ticket (description, duration, is_fixed, advancement)
    project <id> [field=value]  Show or edit a project
    refresh [project...]        Redraw the tickets of some projects, or all of them

FLAGS:
%s
KEYBOARD SHORTCUTS:
    arrows, h/j/k/l   Move the cursor
    space             Pick up the ticket under the cursor, then drop it
    n / p             New ticket / new project at the cursor
    d / D             Delete the ticket / its project
    f                 Fix or release the ticket
    r                 Refresh every ticket
    t                 Jump to today
    q, ctrl+c         Quit
`, version, flagSet.FlagUsages())
}
