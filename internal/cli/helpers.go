package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/daemon"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// session is one CLI invocation's view of the store.
type session struct {
	ctx  context.Context
	d    *daemon.Daemon
	svc  *tracker.Service
	user string
	out  io.Writer
}

// openSession loads the config and opens the store. Console logging is
// turned off so command output owns the terminal.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Logging.Console = false
	if flagUser != "" {
		cfg.User.ID = flagUser
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		ctx:  cmd.Context(),
		d:    d,
		svc:  d.Tracker,
		user: cfg.User.ID,
		out:  cmd.OutOrStdout(),
	}, nil
}

func (s *session) Close() { s.d.Close() }

// task resolves a task by ID or name.
func (s *session) task(ref string) (domain.TaskDefinition, error) {
	return s.svc.FindTask(s.ctx, s.user, ref)
}

// taskID resolves ref to an ID; empty stays empty.
func (s *session) taskID(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	t, err := s.task(ref)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ref, err)
	}
	return t.ID, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDateArg accepts YYYY-MM-DD, today, yesterday or -N (days ago).
func parseDateArg(s string, today domain.Date) (domain.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	if strings.HasPrefix(s, "-") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid date %q", s)
		}
		return today.AddDays(-n), nil
	}
	return domain.ParseDate(s)
}

// parseRangeArgs resolves --from/--to, defaulting to the last days days.
func parseRangeArgs(from, to string, days int, today domain.Date) (domain.DateRange, error) {
	end, err := parseDateArg(to, today)
	if err != nil {
		return domain.DateRange{}, err
	}
	if from == "" {
		return domain.LastNDays(end, days), nil
	}
	start, err := parseDateArg(from, today)
	if err != nil {
		return domain.DateRange{}, err
	}
	if end < start {
		return domain.DateRange{}, fmt.Errorf("--to %s is before --from %s", end, start)
	}
	return domain.NewDateRange(start, end), nil
}

// parseValue parses a logged amount.
func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}

// optFloat returns a pointer to v when the flag was set.
func optFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// parseEndArg is parseDateArg plus +N (days from today) for deadlines.
func parseEndArg(s string, today domain.Date) (domain.Date, error) {
	if strings.HasPrefix(s, "+") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid date %q", s)
		}
		return today.AddDays(n), nil
	}
	return parseDateArg(s, today)
}
