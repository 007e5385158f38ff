package main

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tingelst/sns-ik/pkg/solver"
)

var (
	poseJoints    string
	posePosition  string
	poseRPY       string
	poseBias      string
	poseTolerance string
)

// poseCmd runs one position solve: seed joints + target pose in, joint
// positions out.
var poseCmd = &cobra.Command{
	Use:   "pose",
	Short: "Resolve a target pose into joint positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ik, _, err := buildFacade()
		if err != nil {
			return err
		}

		q, err := parseFloats(poseJoints)
		if err != nil {
			return fmt.Errorf("--joints: %w", err)
		}
		if q == nil {
			q = make([]float64, ik.Config().Len())
		}
		pos, err := parseFloats(posePosition)
		if err != nil || len(pos) != 3 {
			return fmt.Errorf("--position needs 3 comma-separated values")
		}
		rpy, err := parseFloats(poseRPY)
		if err != nil || len(rpy) != 3 {
			return fmt.Errorf("--rpy needs 3 comma-separated values")
		}
		bias, err := parseBias(poseBias)
		if err != nil {
			return fmt.Errorf("--bias: %w", err)
		}
		var tol solver.Twist
		if poseTolerance != "" {
			if tol, err = parseTwist(poseTolerance); err != nil {
				return fmt.Errorf("--tolerance: %w", err)
			}
		}

		target := solver.Pose{
			Position:    r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]},
			Orientation: quatFromRPY(rpy[0], rpy[1], rpy[2]),
		}

		id := uuid.NewString()
		log := logger.With(zap.String("solve_id", id))
		log.Debug("position solve", zap.Float64s("seed", q), zap.Float64s("position", pos))
		out, err := ik.SolvePosition(q, target, bias, tol)
		if err != nil {
			log.Error("position solve failed", zap.Error(err))
			return err
		}
		log.Info("position solve done", zap.Float64s("joints", out))

		fmt.Println(formatVector(out))
		return nil
	},
}

// quatFromRPY converts roll/pitch/yaw (radians, intrinsic x-y-z) to a unit
// quaternion.
func quatFromRPY(roll, pitch, yaw float64) quat.Number {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)
	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

func init() {
	poseCmd.Flags().StringVar(&poseJoints, "joints", "", "seed joint positions, comma separated (default: zeros)")
	poseCmd.Flags().StringVar(&posePosition, "position", "0,0,0", "target position x,y,z in meters")
	poseCmd.Flags().StringVar(&poseRPY, "rpy", "0,0,0", "target orientation roll,pitch,yaw in radians")
	poseCmd.Flags().StringVar(&poseBias, "bias", "", "nullspace bias, e.g. j2=1.0,j5=-0.5")
	poseCmd.Flags().StringVar(&poseTolerance, "tolerance", "", "per-axis Cartesian tolerance (6 values)")
}
