package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/mgomes/bci/bci"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "parse":
		return parseCommand(args[2:])
	case "repl":
		return runREPL(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := newFlagSet("run")
	configPath := fs.String("config", "", "read settings from this bci.toml")
	var verbosity countFlag
	fs.Var(&verbosity, "v", "increase log verbosity (repeatable)")
	checkOnly := fs.Bool("check", false, "only parse the script without executing")
	dumpFormat := fs.String("dump", "", "write a runtime snapshot after the run (yaml or cbor)")
	dumpOut := fs.String("dump-out", "", "write the snapshot to this file")
	recursionLimit := fs.Int("recursion-limit", 0, "maximum binding stack depth")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("bci run: script path required")
	}

	absScriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(absScriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	cfg, err := resolveConfig(*configPath, absScriptPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Log.Verbosity = int(verbosity)
		case "dump":
			cfg.Dump.Format = *dumpFormat
		case "dump-out":
			cfg.Dump.Out = *dumpOut
		case "recursion-limit":
			cfg.Run.RecursionLimit = *recursionLimit
		}
	})
	if err := validateDumpFormat(cfg.Dump.Format); err != nil {
		return fmt.Errorf("bci run: %w", err)
	}
	if cfg.Dump.Format == "cbor" && cfg.Dump.Out == "" {
		return errors.New("bci run: cbor snapshots need -dump-out")
	}
	configureLogging(cfg.Log)

	if *checkOnly {
		if _, err := bci.Parse(string(input)); err != nil {
			return fmt.Errorf("parse failed: %w", err)
		}
		return nil
	}

	interp := bci.NewInterpreter(bci.Config{
		Stdout:         os.Stdout,
		RecursionLimit: cfg.Run.RecursionLimit,
	})
	if _, err := interp.Run(string(input)); err != nil {
		var parseErr *bci.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("parse failed: %w", err)
		}
		return fmt.Errorf("execution failed: %w", err)
	}

	return writeDump(interp, cfg.Dump)
}

func parseCommand(args []string) error {
	fs := newFlagSet("parse")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("bci parse: script path required")
	}
	input, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	tree, err := bci.Parse(string(input))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	fmt.Println(tree.String())
	return nil
}

func writeDump(interp *bci.Interpreter, cfg dumpConfig) error {
	if cfg.Format == "" {
		return nil
	}
	snap := interp.Snapshot()

	var data []byte
	switch cfg.Format {
	case "cbor":
		encoded, err := snap.EncodeCBOR()
		if err != nil {
			return err
		}
		data = encoded
	default:
		if cfg.Out == "" {
			return snap.EncodeYAML(os.Stdout)
		}
		var buf bytes.Buffer
		if err := snap.EncodeYAML(&buf); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(cfg.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	return nil
}

// configureLogging routes the interpreter's logger. Verbosity 0 keeps the
// interpreter quiet; two or more enables its debug trace.
func configureLogging(cfg logConfig) {
	var path *string
	if cfg.File != "" {
		path = &cfg.File
	}
	commonlog.Configure(cfg.Verbosity, path)
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] <script>\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run      evaluate a script")
	fmt.Fprintln(os.Stderr, "  parse    print a script's syntax tree")
	fmt.Fprintln(os.Stderr, "  repl     start an interactive session")
	fmt.Fprintln(os.Stderr, "  fmt      normalise whitespace in .rb files")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -config <file>")
	fmt.Fprintln(os.Stderr, "    read settings from a bci.toml (default: bci.toml next to the script)")
	fmt.Fprintln(os.Stderr, "  -v")
	fmt.Fprintln(os.Stderr, "    increase log verbosity (repeatable)")
	fmt.Fprintln(os.Stderr, "  -check")
	fmt.Fprintln(os.Stderr, "    only parse the script without executing")
	fmt.Fprintln(os.Stderr, "  -dump yaml|cbor, -dump-out <file>")
	fmt.Fprintln(os.Stderr, "    write a runtime snapshot after the run")
	fmt.Fprintln(os.Stderr, "  -recursion-limit <n>")
	fmt.Fprintln(os.Stderr, "    maximum binding stack depth (default 512)")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	return fs
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}

// countFlag counts repeated boolean flags such as -v -v. An explicit
// -v=N sets the count.
type countFlag int

func (c *countFlag) String() string {
	return strconv.Itoa(int(*c))
}

func (c *countFlag) Set(value string) error {
	if value == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid count %q", value)
	}
	*c = countFlag(n)
	return nil
}

func (c *countFlag) IsBoolFlag() bool {
	return true
}
