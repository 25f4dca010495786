package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/exprel/internal/config"
)

// repl reads expressions line by line. When stdin is a terminal it prints a
// prompt and keeps going past errors; when piped it evaluates each line and
// stops on the first failure.
func (s *session) repl(in *os.File) int {
	interactive := isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())
	if interactive {
		fmt.Fprintln(s.stdout, "exprel repl; empty line or Ctrl-D to exit")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(s.stdout, config.ReplPrompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if interactive {
				break
			}
			continue
		}
		if err := s.evalAndPrint(line); err != nil {
			fmt.Fprintln(s.stderr, err)
			if !interactive {
				return 1
			}
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		fmt.Fprintln(s.stderr, err)
		return 1
	}
	return 0
}
