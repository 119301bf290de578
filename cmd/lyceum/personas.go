package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/lyceum/persona"
)

var personasShowInstructions bool

func newPersonasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List persona contracts and discourse modes",
		RunE:  runPersonas,
	}

	cmd.Flags().BoolVar(&personasShowInstructions, "instructions", false, "Print the full contract instructions")

	return cmd
}

func runPersonas(cmd *cobra.Command, _ []string) error {
	var (
		reg *persona.Registry
		err error
	)

	_, lyc, _, sync, bootErr := bootstrap(cmd.Context(), nil)
	if bootErr == nil {
		defer func() { _ = sync() }()
		reg = lyc.Registry()
	} else if reg, err = persona.New(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, color.CyanString("Personas"))
	for _, c := range reg.Contracts() {
		fmt.Fprintf(out, "  %s %-24s %s\n", c.Icon, c.DisplayName, color.HiBlackString(string(c.ID)))
		if c.Summary != "" {
			fmt.Fprintf(out, "     %s\n", c.Summary)
		}
		if personasShowInstructions {
			fmt.Fprintf(out, "\n%s\n\n", c.Instruction)
		}
	}

	if !reg.ModesEnabled() {
		return nil
	}

	fmt.Fprintln(out, color.CyanString("\nModes"))
	for _, m := range reg.Modes() {
		fmt.Fprintf(out, "  %-10s %s\n", m.Mode, m.Description)
	}

	return nil
}
