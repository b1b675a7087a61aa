package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/nooga/specjs/pkg/config"
	"github.com/nooga/specjs/pkg/driver"
	"github.com/nooga/specjs/pkg/source"
)

func main() {
	exprFlag := flag.String("e", "", "Run the given script and exit")
	configFlag := flag.String("config", "", "YAML configuration file")
	verboseFlag := flag.Int("v", 0, "Log verbosity (overrides the config file when non-zero)")
	seedFlag := flag.Int64("seed", 0, "Seed Math.random (0 keeps the config value)")
	jobLimitFlag := flag.Int("job-limit", -1, "Bound on jobs run per drain (-1 keeps the config value)")

	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(78) // EX_CONFIG
		}
	}
	if *verboseFlag != 0 {
		cfg.Verbosity = *verboseFlag
	}
	if *seedFlag != 0 {
		cfg.RandomSeed = seedFlag
	}
	if *jobLimitFlag >= 0 {
		cfg.JobLimit = *jobLimitFlag
	}
	cfg.ConfigureLogging()

	argv := append([]string{os.Args[0]}, flag.Args()...)
	session, err := driver.NewSessionWithOptions(cfg, driver.SessionOptions{Argv: argv})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(70)
	}
	defer session.Close()

	switch {
	case *exprFlag != "":
		runSource(session, source.NewEvalSource(*exprFlag))
	case flag.NArg() >= 1:
		filename := flag.Arg(0)
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read file '%s': %s\n", filename, err)
			os.Exit(66) // EX_NOINPUT
		}
		runSource(session, source.FromFile(filename, string(content)))
	case !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			os.Exit(74) // EX_IOERR
		}
		runSource(session, source.NewStdinSource(string(content)))
	default:
		runRepl(session)
	}
}

// runSource evaluates one script and exits non-zero on any error.
func runSource(session *driver.Session, src *source.SourceFile) {
	value, errs := session.RunSource(src, driver.RunOptions{})
	if !session.DisplayResult(src.Content, value, errs) {
		session.Close()
		os.Exit(70)
	}
}

// runRepl starts the Read-Eval-Print Loop. Every line runs as its own
// script in the session's realm.
func runRepl(session *driver.Session) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("specjs (Ctrl+D to exit)")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			break
		}
		if line == "\n" {
			continue
		}
		value, errs := session.RunSource(source.NewEvalSource(line), driver.RunOptions{})
		session.DisplayResult(line, value, errs)
	}
}
