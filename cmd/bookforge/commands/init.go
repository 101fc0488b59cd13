package commands

import (
	"fmt"

	"github.com/bookforge/bookforge/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Println("Initialized book configuration:", root.Config)
	fmt.Println("Next: edit chapters/introduction.md and run 'bookforge build'")
	return nil
}
