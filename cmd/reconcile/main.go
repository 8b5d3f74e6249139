// Command reconcile drives the reconciler core from two small
// harnesses: demo (an interactive counter-list running under a
// terminal host) and bench (a synthetic update-burst scenario runner
// printing commit counts and a lane histogram), per the teacher's
// cmd/capsule/main.go shape (a kong CLI struct, one Cmd type per
// subcommand, each with its own Run method).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/loopcraft/reconciler/internal/democomp"
	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/realsched"
	"github.com/loopcraft/reconciler/internal/reconciler"
	"github.com/loopcraft/reconciler/internal/rtconfig"
	"github.com/loopcraft/reconciler/internal/termhost"
)

var (
	version = "dev"
	commit  = "unknown"
)

// CLI is the top-level command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Demo    DemoCmd          `cmd:"" help:"Run the counter-list demo against a terminal host."`
	Bench   BenchCmd         `cmd:"" help:"Run a synthetic update-burst scenario and print commit stats."`
}

// DemoCmd mounts internal/democomp's fixed tree onto a termhost
// adapter, resolves its async item right after the initial mount, and
// lets the user quit with q/ctrl+c.
type DemoCmd struct {
	ConfigPath string `help:"Optional layered rtconfig YAML file." default:""`
	NoTUI      bool   `help:"Force line-mode output even if stdout is a TTY." default:"false"`
}

// Run builds the demo's dependencies and drives one mount plus one
// resolve through the reconciler core.
func (c *DemoCmd) Run() error {
	cfg := rtconfig.DefaultConfig()
	if c.ConfigPath != "" {
		loaded, err := rtconfig.Load(c.ConfigPath)
		if err != nil {
			return fmt.Errorf("demo: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("demo: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	resource := democomp.NewAsyncResource()
	hooks := democomp.New(resource)
	hooks.OnMount = func(r *democomp.AsyncResource) {
		log.Info("async item mounted", "resource", r.ID(), "value", r.Value())
	}
	hooks.OnUnmount = func(r *democomp.AsyncResource) {
		log.Info("async item unmounted", "resource", r.ID())
	}

	sched := realsched.New()
	sched.Start()
	defer sched.Stop()

	useTUI := !c.NoTUI && isatty.IsTerminal(os.Stdout.Fd())

	if !useTUI {
		host, container := termhost.NewLineHost()
		root := reconciler.NewFiberRoot(container, fiber.Mode(0))
		rc := reconciler.NewRenderContext(sched, host, hooks, reconciler.WithConfig(cfg), reconciler.WithLogger(log))
		return runDemoSequence(rc, root, resource)
	}

	program := tea.NewProgram(termhost.NewModel())
	host, container := termhost.NewAdapter(program)
	root := reconciler.NewFiberRoot(container, fiber.Mode(0))
	rc := reconciler.NewRenderContext(sched, host, hooks, reconciler.WithConfig(cfg), reconciler.WithLogger(log))

	go func() {
		if err := runDemoSequence(rc, root, resource); err != nil {
			log.Error("demo sequence failed", "err", err)
		}
	}()

	_, err := program.Run()
	return err
}

func runDemoSequence(rc *reconciler.RenderContext, root *reconciler.FiberRoot, resource *democomp.AsyncResource) error {
	if err := rc.FlushSync(func() {
		if err := rc.UpdateContainer(root, lane.PriorityImmediate); err != nil {
			panic(err)
		}
	}); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	resource.Resolve("42")

	return rc.FlushSync(func() {
		if err := rc.UpdateContainer(root, lane.PriorityNormal); err != nil {
			panic(err)
		}
	})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Vars{"version": version + " " + commit})
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
