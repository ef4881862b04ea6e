package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mdsite/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Fprintf(stdout, "Writing configuration to %s\n", root.Config)
	written, err := config.Init(root.Config, i.Force)
	for _, path := range written {
		fmt.Fprintf(stdout, "  created %s\n", path)
	}
	return err
}
