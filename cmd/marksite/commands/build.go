package commands

import (
	"context"

	"git.home.luguber.info/inful/marksite/internal/build"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Strict bool `help:"Fail when the build reports validation, resolution or link problems"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	orch, err := build.New(root.Root)
	if err != nil {
		return err
	}
	rep, err := orch.Build(ctx)
	printSummary(g.out(), rep, root.Verbose)
	if err != nil {
		return err
	}
	if b.Strict && !rep.Problems.Empty() {
		return errors.ValidationError("build reported problems").
			WithContext("problems", rep.Problems.Count()).
			Build()
	}
	return nil
}
