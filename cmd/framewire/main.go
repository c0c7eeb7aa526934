// Package main provides the framewire CLI for inspecting tabular sources
// through the execution boundary.
//
// Usage:
//
//	framewire show data.csv            # Render the table
//	framewire show data.csv -n 20      # Render the first 20 rows
//	framewire count data.parquet       # Print the row count
//	framewire csv data.json            # Re-emit any source as CSV
//	framewire schema data.csv          # Print column names
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/framewire/framewire/pkg/engine"
	"github.com/framewire/framewire/pkg/exec"
	"github.com/framewire/framewire/pkg/frame"
)

// Version info set via ldflags
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	cmd := os.Args[1]
	switch cmd {
	case "show":
		return showCommand(os.Args[2:])
	case "count":
		return countCommand(os.Args[2:])
	case "csv":
		return csvCommand(os.Args[2:])
	case "schema":
		return schemaCommand(os.Args[2:])
	case "version":
		fmt.Printf("framewire version %s\n", version)
		return nil
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage() error {
	fmt.Println(`framewire - inspect tabular sources

Usage:
  framewire show <path> [-n rows] [-v]   render the table
  framewire count <path>                 print the row count
  framewire csv <path>                   re-emit the source as CSV
  framewire schema <path>                print column names
  framewire version                      print version`)
	return nil
}

// open loads a source of any supported format into a collected frame.
func open(s *frame.Session, path string) (*frame.DataFrame, error) {
	var d *frame.DataFrame
	switch {
	case strings.HasSuffix(path, ".parquet"):
		d = s.ReadParquet(path)
	case strings.HasSuffix(path, ".json"):
		d = s.ReadJSON(path)
	default:
		if strings.ContainsAny(path, "*?[") {
			d = s.ReadCSV(path, frame.WithGlob())
		} else {
			d = s.ReadCSV(path)
		}
	}
	return d.Collect()
}

func newSession(verbose bool) (*frame.Session, error) {
	if !verbose {
		return frame.NewSession(nil), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return frame.NewSession(exec.NewRuntime(exec.WithLogger(logger))), nil
}

func showCommand(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	n := fs.Int("n", 0, "limit output to the first n rows")
	verbose := fs.Bool("v", false, "verbose runtime logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("show: expected one path argument")
	}

	s, err := newSession(*verbose)
	if err != nil {
		return err
	}
	d, err := open(s, fs.Arg(0))
	if err != nil {
		return err
	}
	defer d.Release()

	if *n > 0 {
		if d, err = d.Limit(*n).Collect(); err != nil {
			return err
		}
	}
	fmt.Println(d)
	return nil
}

func countCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("count: expected one path argument")
	}
	s := frame.NewSession(nil)
	d, err := open(s, args[0])
	if err != nil {
		return err
	}
	defer d.Release()

	height, err := d.Height()
	if err != nil {
		return err
	}
	fmt.Println(height)
	return nil
}

func csvCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("csv: expected one path argument")
	}
	s := frame.NewSession(nil)
	d, err := open(s, args[0])
	if err != nil {
		return err
	}
	defer d.Release()

	out, err := d.ToCSV()
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func schemaCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("schema: expected one path argument")
	}
	s := frame.NewSession(nil)
	d, err := open(s, args[0])
	if err != nil {
		return err
	}
	defer d.Release()

	df, err := s.Runtime().Table(d.Handle())
	if err != nil {
		return err
	}
	for _, name := range engine.ColumnNames(df) {
		fmt.Println(name)
	}
	return nil
}
