package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// limitsCmd prints the per-joint capability table the facade derived, which
// is the quickest way to check a description/override pair.
var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Print the derived joint capability table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ik, robot, err := buildFacade()
		if err != nil {
			return err
		}
		cfg := ik.Config()

		fmt.Printf("robot: %s (%d joints, %s solver)\n", robot.Name, cfg.Len(), ik.VelocitySolveType())
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOINT\tTYPE\tLOWER\tUPPER\tVELOCITY\tACCELERATION")
		for i := 0; i < cfg.Len(); i++ {
			j := cfg.Joint(i)
			fmt.Fprintf(w, "%s\t%s\t%.4g\t%.4g\t%.4g\t%.4g\n",
				j.Name, j.Type, j.Lower, j.Upper, j.MaxVelocity, j.MaxAcceleration)
		}
		return w.Flush()
	},
}
