package commands

import (
	"errors"
	"fmt"

	"github.com/marmos91/layerscope/cmd/layerscope/cmdutil"
	"github.com/marmos91/layerscope/internal/cli/output"
	"github.com/marmos91/layerscope/pkg/session"
)

// removal drives the preview, confirm, execute sequence shared by rm and
// prune.
type removal struct {
	preview session.Command
	execute func() session.Command
	confirm func(plan *session.PlanView) (bool, error)
	dryRun  bool
	force   bool
}

func (r removal) run(env *cmdutil.Env) error {
	p := env.Printer

	view, err := env.Session.Execute(env.Ctx, r.preview)
	if err != nil {
		return err
	}
	plan := view.(*session.PlanView)

	if len(plan.Items) == 0 {
		if p.IsTable() {
			p.Println("Nothing to remove.")
			return nil
		}
		return p.Print(plan)
	}

	// A structured result owns stdout, so the plan shown before a prompt
	// goes to stderr.
	notices := p
	if !p.IsTable() {
		notices = env.Notices
	}

	switch {
	case r.dryRun:
		return printPlan(p, plan)
	case p.IsTable() || !r.force:
		if err := printPlan(notices, plan); err != nil {
			return err
		}
	}

	ok, err := r.confirm(plan)
	if err != nil {
		return err
	}
	if !ok {
		notices.Warning("Aborted, nothing was removed.")
		return nil
	}

	view, err = env.Session.Execute(env.Ctx, r.execute())
	var result *session.RemovalView
	if v, ok := view.(*session.RemovalView); ok {
		result = v
	}
	if result == nil {
		return err
	}
	if perr := printRemoval(p, result); perr != nil {
		return errors.Join(err, perr)
	}
	return err
}

func printPlan(p *output.Printer, plan *session.PlanView) error {
	if !p.IsTable() {
		return p.Print(plan)
	}
	if err := output.PrintTable(p.Writer(), PlanTable{plan}); err != nil {
		return err
	}
	p.Println()
	p.Printf("%s would be removed, freeing %s.\n", cmdutil.Plural(len(plan.Items), "node"), plan.Size)
	return nil
}

func printRemoval(p *output.Printer, result *session.RemovalView) error {
	if !p.IsTable() {
		return p.Print(result)
	}
	if len(result.Removed) > 0 {
		if err := output.PrintTable(p.Writer(), RemovalTable{result}); err != nil {
			return err
		}
		p.Println()
	}
	msg := fmt.Sprintf("Removed %s, freed %s.", cmdutil.Plural(len(result.Removed), "node"), result.Size)
	if result.Failed != "" {
		p.Error(fmt.Sprintf("%s Stopped at %s.", msg, result.Failed))
		return nil
	}
	p.Success(msg)
	return nil
}
