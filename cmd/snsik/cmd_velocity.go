package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	velJoints string
	velTwist  string
	velBias   string
)

// velocityCmd runs one velocity solve: current joints + target twist in,
// joint velocities out.
var velocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Resolve a Cartesian twist into joint velocities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ik, _, err := buildFacade()
		if err != nil {
			return err
		}

		q, err := parseFloats(velJoints)
		if err != nil {
			return fmt.Errorf("--joints: %w", err)
		}
		if q == nil {
			q = make([]float64, ik.Config().Len())
		}
		tw, err := parseTwist(velTwist)
		if err != nil {
			return fmt.Errorf("--twist: %w", err)
		}
		bias, err := parseBias(velBias)
		if err != nil {
			return fmt.Errorf("--bias: %w", err)
		}

		id := uuid.NewString()
		log := logger.With(zap.String("solve_id", id))
		log.Debug("velocity solve", zap.Float64s("joints", q))
		qdot, err := ik.SolveVelocity(q, tw, bias)
		if err != nil {
			log.Error("velocity solve failed", zap.Error(err))
			return err
		}
		log.Info("velocity solve done", zap.Float64s("qdot", qdot))

		fmt.Println(formatVector(qdot))
		return nil
	},
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6f", x)
	}
	return strings.Join(parts, " ")
}

func init() {
	velocityCmd.Flags().StringVar(&velJoints, "joints", "", "current joint positions, comma separated (default: zeros)")
	velocityCmd.Flags().StringVar(&velTwist, "twist", "0,0,0,0,0,0", "target twist: linear x,y,z then angular x,y,z")
	velocityCmd.Flags().StringVar(&velBias, "bias", "", "nullspace bias, e.g. j2=1.0,j5=-0.5")
}
