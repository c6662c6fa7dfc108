package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/crew"
	"github.com/Comcast/brains/timers"
	"github.com/Comcast/brains/tools"
	"github.com/Comcast/brains/util"

	"github.com/spf13/cobra"
)

var runFlags struct {
	fsm      string
	agents   []string
	bb       []string
	props    []string
	seed     int64
	parallel bool
	wait     time.Duration
	trace    bool
	load     bool
	save     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run agents with events read from stdin",
	Long: `Run makes a crew of agents running the given state machine and
then reads lines from stdin:

  EVENT            fire EVENT at every agent
  @ID EVENT        fire EVENT at agent ID
  in DUR EVENT     fire EVENT at every agent after DUR (like "2s")
  in DUR @ID EVENT

After each line, the agents' status is written to stdout as JSON.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.fsm, "fsm", "main", "top-level state machine")
	f.StringSliceVar(&runFlags.agents, "agents", []string{"agent"}, "agent ids")
	f.StringArrayVar(&runFlags.bb, "bb", nil, "initial blackboard entry KEY=VALUE (VALUE is JSON or a string)")
	f.StringArrayVar(&runFlags.props, "prop", nil, "agent property KEY=VALUE (VALUE is JSON or a string)")
	f.Int64Var(&runFlags.seed, "seed", 1, "random seed for the first agent (then seed+1, ...)")
	f.BoolVar(&runFlags.parallel, "parallel", false, "deliver broadcast events concurrently")
	f.DurationVar(&runFlags.wait, "wait", 0, "after stdin closes, wait up to this long for pending timers")
	f.BoolVar(&runFlags.trace, "trace", false, "write node state changes to stderr")
	f.BoolVar(&runFlags.load, "load", false, "load blackboards from --store")
	f.BoolVar(&runFlags.save, "save", false, "save blackboards to --store")
}

// parseKV parses KEY=VALUE where VALUE is JSON or else a string.
func parseKV(kvs []string) (map[string]interface{}, error) {
	acc := make(map[string]interface{}, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad KEY=VALUE '%s'", kv)
		}
		var x interface{}
		if err := json.Unmarshal([]byte(v), &x); err != nil {
			x = v
		}
		acc[k] = x
	}
	return acc, nil
}

// command is one parsed line of input.
type command struct {
	after time.Duration
	agent string
	event string
}

func parseCommand(line string) (*command, error) {
	fs := strings.Fields(line)
	if len(fs) == 0 || strings.HasPrefix(fs[0], "#") {
		return nil, nil
	}
	c := &command{}
	if fs[0] == "in" {
		if len(fs) < 3 {
			return nil, fmt.Errorf("bad line '%s'", line)
		}
		d, err := time.ParseDuration(fs[1])
		if err != nil {
			return nil, err
		}
		c.after = d
		fs = fs[2:]
	}
	if strings.HasPrefix(fs[0], "@") {
		if len(fs) < 2 {
			return nil, fmt.Errorf("bad line '%s'", line)
		}
		c.agent = fs[0][1:]
		fs = fs[1:]
	}
	if len(fs) != 1 {
		return nil, fmt.Errorf("bad line '%s'", line)
	}
	c.event = fs[0]
	return c, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if (runFlags.load || runFlags.save) && rootFlags.store == "" {
		return fmt.Errorf("--load and --save need --store")
	}

	src, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	bb, err := parseKV(runFlags.bb)
	if err != nil {
		return err
	}
	props, err := parseKV(runFlags.props)
	if err != nil {
		return err
	}

	var rec *tools.Recorder
	if runFlags.trace {
		rec = tools.NewRecorder()
	}

	c := crew.NewCrew("")
	c.Parallel = runFlags.parallel
	for i, id := range runFlags.agents {
		a := core.NewAgent(id, src, core.Builtins())
		a.Rand = newRand(runFlags.seed + int64(i))
		a.Props = core.NewPropertyMap(props)
		for k, v := range bb {
			a.Blackboard()[k] = v
		}
		if runFlags.load {
			found, err := src.(storeSource).ReadBlackboard(ctx, a)
			if err != nil {
				return err
			}
			util.Logf("agent %s blackboard loaded: %v", id, found)
		}
		if rec != nil {
			a.Debugger = rec
		}
		a.SetFsm(runFlags.fsm)
		if err = c.Add(a); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	report := func(line string) error {
		if rec != nil {
			for _, r := range rec.Take() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %d %s %s\n", r.Agent, r.Id, r.Name, r.Debug)
			}
		}
		return enc.Encode(map[string]interface{}{
			"line":   line,
			"agents": c.Copy(),
		})
	}

	if err = c.EnableAll(ctx, true); err != nil {
		return err
	}
	if err = report(""); err != nil {
		return err
	}

	ts := timers.NewTimers(timers.CrewEmitter(c))

	if err = readCommands(ctx, cmd.InOrStdin(), c, ts, report); err != nil {
		return err
	}

	if 0 < runFlags.wait {
		deadline := time.Now().Add(runFlags.wait)
		for 0 < len(ts.Pending()) && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if err = report("(end)"); err != nil {
			return err
		}
	}

	if runFlags.save {
		for _, id := range c.Ids() {
			err := c.Do(id, func(a *core.Agent) error {
				return src.(storeSource).WriteBlackboard(ctx, a)
			})
			if err != nil {
				return err
			}
		}
	}

	return c.EnableAll(ctx, false)
}

func readCommands(ctx context.Context, in io.Reader, c *crew.Crew, ts *timers.Timers, report func(string) error) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		op, err := parseCommand(line)
		if err != nil {
			return err
		}
		if op == nil {
			continue
		}
		util.Logf("command %q", line)
		switch {
		case 0 < op.after:
			_, err = ts.Add(ctx, "", op.agent, op.event, op.after)
		case op.agent != "":
			err = c.Fire(ctx, op.agent, op.event)
		default:
			err = c.Broadcast(ctx, op.event)
		}
		if err != nil {
			return err
		}
		if err = report(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
