// Package cli is the command shell collaborator described in spec §1: it
// parses line commands and invokes the index operations, but implements
// none of the tree algorithms itself. Grounded on the teacher's cli
// package (bufio.Scanner + Fields-based dispatch), generalized from a
// four-command toy shell to the full operation set in spec §6.2.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"bptree/bptree"
)

var (
	okColor  = color.New(color.FgGreen)
	errColor = color.New(color.FgRed)
)

// Shell reads commands from scanner and drives idx, writing output to out.
type Shell struct {
	scanner *bufio.Scanner
	idx     *bptree.Index
	out     io.Writer
}

func New(r io.Reader, out io.Writer, idx *bptree.Index) *Shell {
	return &Shell{scanner: bufio.NewScanner(r), idx: idx, out: out}
}

func (s *Shell) Run() {
	s.printHelp()
	s.printPrompt()
	for s.scanner.Scan() {
		s.dispatch(s.scanner.Text())
		s.printPrompt()
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `
B+ Tree CLI

Available commands:
  SET <key> <value>       Insert a key-value pair
  GET <key>               Look up a key
  UPDATE <key> <value>    Overwrite the value for an existing key
  RANGE <min> <max>       List key-value pairs with min <= key <= max
  DEL <key>               Delete a key (unimplemented in this core)
  CHECK                   Run the sanity checker
  DUMP                    Print a depth-indented tree dump
  DOT                     Print a Graphviz DOT dump
  SORTED                  Print (key,value) pairs in ascending order
  EXIT                    Terminate this session
`)
}

func (s *Shell) printPrompt() { fmt.Fprint(s.out, "> ") }

func (s *Shell) dispatch(line string) {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return
	}
	switch strings.ToLower(fields[0]) {
	case "set":
		s.cmdSet(fields[1:])
	case "get":
		s.cmdGet(fields[1:])
	case "update":
		s.cmdUpdate(fields[1:])
	case "range":
		s.cmdRange(fields[1:])
	case "del":
		s.cmdDel(fields[1:])
	case "check":
		s.cmdCheck()
	case "dump":
		s.cmdDump()
	case "dot":
		s.cmdDot()
	case "sorted":
		s.cmdSorted()
	case "exit":
		os.Exit(0)
	default:
		errColor.Fprintf(s.out, "unknown command %q\n", fields[0])
	}
}

func (s *Shell) cmdSet(args []string) {
	if len(args) != 2 {
		errColor.Fprintln(s.out, "usage: SET <key> <value>")
		return
	}
	if err := s.idx.Insert([]byte(args[0]), []byte(args[1])); err != nil {
		s.reportError(err)
		return
	}
	okColor.Fprintln(s.out, "ok")
}

func (s *Shell) cmdGet(args []string) {
	if len(args) != 1 {
		errColor.Fprintln(s.out, "usage: GET <key>")
		return
	}
	val, err := s.idx.Lookup([]byte(args[0]))
	if err != nil {
		s.reportError(err)
		return
	}
	fmt.Fprintln(s.out, string(val))
}

func (s *Shell) cmdUpdate(args []string) {
	if len(args) != 2 {
		errColor.Fprintln(s.out, "usage: UPDATE <key> <value>")
		return
	}
	if err := s.idx.Update([]byte(args[0]), []byte(args[1])); err != nil {
		s.reportError(err)
		return
	}
	okColor.Fprintln(s.out, "ok")
}

func (s *Shell) cmdRange(args []string) {
	if len(args) != 2 {
		errColor.Fprintln(s.out, "usage: RANGE <min> <max>")
		return
	}
	pairs, err := s.idx.Range([]byte(args[0]), []byte(args[1]))
	if err != nil {
		s.reportError(err)
		return
	}
	for _, kv := range pairs {
		fmt.Fprintf(s.out, "(%s,%s)\n", kv.Key, kv.Value)
	}
}

func (s *Shell) cmdDel(args []string) {
	if len(args) != 1 {
		errColor.Fprintln(s.out, "usage: DEL <key>")
		return
	}
	if err := s.idx.Delete([]byte(args[0])); err != nil {
		s.reportError(err)
		return
	}
	okColor.Fprintln(s.out, "ok")
}

func (s *Shell) cmdCheck() {
	if err := s.idx.SanityCheck(); err != nil {
		s.reportError(err)
		return
	}
	okColor.Fprintln(s.out, "sane")
}

func (s *Shell) cmdDump() {
	if err := s.idx.Display(s.out, bptree.DisplayDepth); err != nil {
		s.reportError(err)
	}
}

func (s *Shell) cmdDot() {
	if err := s.idx.Display(s.out, bptree.DisplayDepthDot); err != nil {
		s.reportError(err)
	}
}

func (s *Shell) cmdSorted() {
	if err := s.idx.Display(s.out, bptree.DisplaySorted); err != nil {
		s.reportError(err)
	}
}

func (s *Shell) reportError(err error) {
	errColor.Fprintf(s.out, "error: %s\n", err)
}
