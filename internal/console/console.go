package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JamesPrial/scene-namer/internal/toolkit"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
)

// Runner executes toolbox actions
type Runner interface {
	Run(ctx context.Context, action toolkit.Action) error
	SelectedOnly() bool
}

// Console is the interactive toolbox loop: it prompts for an action, runs
// it, and repeats until Exit or end of input.
type Console struct {
	scanner *bufio.Scanner
	out     io.Writer
	runner  Runner
	logger  *slog.Logger
}

// New creates a console reading commands from in and writing prompts to out
func New(in io.Reader, out io.Writer, runner Runner) *Console {
	return &Console{
		scanner: bufio.NewScanner(in),
		out:     out,
		runner:  runner,
		logger:  logging.GetGlobalLogger("console"),
	}
}

// Start runs the loop until the user exits, input ends or ctx is canceled
func (c *Console) Start(ctx context.Context) error {
	c.logger.DebugContext(ctx, "Toolbox starting")

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Toolbox context cancelled")
			return ctx.Err()
		default:
		}

		c.prompt()
		if !c.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(c.scanner.Text())
		action, err := resolve(input)
		if err != nil {
			fmt.Fprintf(c.out, "Unknown action '%s'.\n\n", input)
			c.logger.DebugContext(ctx, "Unknown toolbox input", slog.String("input", input))
			continue
		}

		// Failures are already rendered by the runner; the loop carries on
		if err := c.runner.Run(ctx, action); err != nil {
			c.logger.DebugContext(ctx, "Action failed",
				slog.String("action", string(action)),
				slog.String("code", string(errors.GetCode(err))),
			)
		}
		if action == toolkit.ActionExit {
			return nil
		}
	}

	if err := c.scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "error reading toolbox input")
	}
	fmt.Fprintln(c.out, "Toolbox cancelled.")
	return nil
}

func (c *Console) prompt() {
	mode := "OFF"
	if c.runner.SelectedOnly() {
		mode = "ON"
	}

	names := make([]string, 0, 6)
	for i, a := range toolkit.ListActions() {
		names = append(names, fmt.Sprintf("%d) %s", i+1, a.Name))
	}
	fmt.Fprintf(c.out, "Choose action (Selected only: %s) [%s]\n  %s\n> ",
		mode, toolkit.DefaultAction, strings.Join(names, "  "))
}

// resolve maps user input to an action. Blank input picks the default
// action; a number picks from the menu.
func resolve(input string) (toolkit.Action, error) {
	if input == "" {
		return toolkit.DefaultAction, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		list := toolkit.ListActions()
		if n < 1 || n > len(list) {
			return "", errors.Newf(errors.ErrCodeUnknownAction, "no menu entry %d", n)
		}
		return list[n-1].Name, nil
	}
	return toolkit.ParseAction(input)
}
