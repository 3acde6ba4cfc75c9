package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const prompt = "financeflow> "

var errUnterminated = errors.New("unterminated quote or trailing backslash")

func (a *App) runShell(ctx context.Context, args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(a.Stderr, "Usage: financeflow shell")
		return ExitUsage
	}
	in := a.Stdin
	if in == nil {
		in = os.Stdin
	}
	return a.Shell(ctx, in)
}

// Shell reads commands from in until EOF, "exit" or ctx is done.
// Each line is split like a shell command line, so quoted values may contain spaces.
func (a *App) Shell(ctx context.Context, in io.Reader) int {
	if a.Caches != nil && a.CacheTTL > 0 {
		a.Caches.StartCleanup(a.CacheTTL)
		defer a.Caches.Stop()
	}

	fmt.Fprintln(a.Stdout, `FinanceFlow shell. Type "help" for commands, "exit" to quit.`)
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		fmt.Fprint(a.Stdout, prompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.Stdout)
			return ExitOK
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(a.Stdout)
				return ExitOK
			}
			line = l
		}

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return ExitOK
		case "shell":
			fmt.Fprintln(a.Stderr, "Already in the shell.")
			continue
		}

		start := time.Now()
		code := a.Run(ctx, args)
		a.logger().DebugContext(ctx, "Shell command finished",
			"command", args[0],
			"exit_code", code,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// SplitArgs splits a command line into words. Single quotes keep everything literal,
// double quotes allow backslash escapes, and a backslash outside quotes escapes the next rune.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				current.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminated
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
