package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/marksite/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite the scaffold files of an existing site"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Root, i.Force); err != nil {
		return err
	}
	styles := newStyles(g.out())
	_, _ = fmt.Fprintf(g.out(), "%s %s\n",
		styles.Success.Render("✓ Initialized site"),
		styles.Muted.Render(filepath.Join(root.Root, config.ToolDirName)))
	return nil
}
