// Command snsik exercises the SNS inverse kinematics library from the shell:
// it loads a YAML robot description (or a built-in sample arm), derives the
// joint capability table, and runs one-shot velocity or position solves.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tingelst/sns-ik/internal/config"
	"github.com/tingelst/sns-ik/pkg/snsik"
	"github.com/tingelst/sns-ik/pkg/solver"
)

var version = "dev"

var (
	// Global flags
	robotPath     string
	overridesPath string
	solveType     string
	loopPeriod    float64
	nullspaceGain float64
	verbose       bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snsik",
	Short: "SNS inverse kinematics solver for redundant kinematic chains",
	Long: `snsik resolves Cartesian motion commands into joint-space commands for a
redundant kinematic chain, respecting per-joint position, velocity and
acceleration limits, with an optional nullspace bias toward preferred joint
values.

The robot is described by a YAML file (see 'snsik limits --help'); without
--robot a built-in six-revolute sample arm is used.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snsik version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("snsik %s\n", version)
	},
}

// loadRobot reads the robot description named by --robot, falling back to
// the built-in sample arm.
func loadRobot() (*config.Robot, error) {
	if robotPath == "" {
		return config.DefaultRobot(), nil
	}
	return config.Load(robotPath)
}

// buildFacade assembles the IK facade from the global flags.
func buildFacade() (*snsik.IK, *config.Robot, error) {
	robot, err := loadRobot()
	if err != nil {
		return nil, nil, err
	}
	kin, err := robot.Chain()
	if err != nil {
		return nil, nil, err
	}
	var ov *config.Overrides
	if overridesPath != "" {
		if ov, err = config.LoadOverrides(overridesPath); err != nil {
			return nil, nil, err
		}
	}
	var ovIface snsik.Overrides
	if ov != nil {
		ovIface = ov
	}
	ik, err := snsik.New(kin, robot.Description(), ovIface, loopPeriod,
		snsik.WithSolveType(solver.Type(solveType)),
		snsik.WithNullspaceGain(nullspaceGain),
		snsik.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return ik, robot, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&robotPath, "robot", "", "YAML robot description file (default: built-in sample arm)")
	rootCmd.PersistentFlags().StringVar(&overridesPath, "overrides", "", "YAML joint-limit override file")
	rootCmd.PersistentFlags().StringVar(&solveType, "solver", string(solver.Standard), "velocity solver variant (standard, fast, optimal, optimal_scale_margin, fast_optimal)")
	rootCmd.PersistentFlags().Float64Var(&loopPeriod, "loop-period", 0.01, "control period in seconds")
	rootCmd.PersistentFlags().Float64Var(&nullspaceGain, "gain", 1.0, "nullspace bias proportional gain")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(limitsCmd)
	rootCmd.AddCommand(velocityCmd)
	rootCmd.AddCommand(poseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
