package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"checkers/internal/storage"

	"golang.org/x/term"
)

// Run is the entry point for the db maintenance commands
func Run(args []string) error {
	return run(os.Stdin, os.Stdout, args)
}

func run(in io.Reader, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, or remove")
	}

	switch args[0] {
	case "init":
		return runInit(out, args[1:])
	case "delete":
		return runDelete(in, out, args[1:])
	case "query":
		return runQuery(out, args[1:])
	case "remove":
		return runRemove(out, args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(fs *flag.FlagSet, args []string) (*storage.Store, string, error) {
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if *path == "" {
		return nil, "", fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open store: %w", err)
	}
	return store, *path, nil
}

func runInit(out io.Writer, args []string) error {
	store, path, err := openStore(flag.NewFlagSet("init", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(in io.Reader, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	force := fs.Bool("force", false, "Do not ask for confirmation")
	store, path, err := openStore(fs, args)
	if err != nil {
		return err
	}

	// Only an interactive session is asked; scripts pass -force or get the default
	if !*force && isTerminal(in) {
		fmt.Fprintf(out, "Delete %s and every save in it? [y/N]: ", path)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			store.Close()
			return errors.New("aborted")
		}
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runQuery(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	saveID := fs.String("saveId", "", "Save ID to filter (optional, * for all)")
	name := fs.String("name", "", "Save name to filter (optional, * for all)")
	store, _, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	saves, err := store.QuerySaves(*saveID, *name)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(saves) == 0 {
		fmt.Fprintln(out, "No saves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Save ID\tName\tTurn\tBlack\tWhite\tPosition\tCreated")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, s := range saves {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.SaveID,
			s.Name,
			s.Data.Turn,
			s.BlackType,
			s.WhiteType,
			s.Position,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d save(s)\n", len(saves))
	return nil
}

func runRemove(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	saveID := fs.String("saveId", "", "Save ID to remove (required)")
	store, _, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *saveID == "" {
		return fmt.Errorf("save ID required")
	}
	if err := store.DeleteSave(*saveID); err != nil {
		return fmt.Errorf("failed to remove save: %w", err)
	}

	fmt.Fprintf(out, "Save removed: %s\n", *saveID)
	return nil
}
