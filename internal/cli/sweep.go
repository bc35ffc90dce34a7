package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/utilhub/nfequery/internal/artifact"
)

var (
	sweepDir       string
	sweepRetention time.Duration
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired query artifacts",
		Long:  "Remove stored artifacts older than the retention window. Only files written by this tool are considered",
		RunE:  runSweep,
	}

	sweepCmd.Flags().StringVar(&sweepDir, "dir", "", "Artifact directory (default: ARTIFACT_DIR, or the system temp directory)")
	sweepCmd.Flags().DurationVar(&sweepRetention, "retention", 0, "Retention window (default: ARTIFACT_RETENTION)")

	return sweepCmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	dir := sweepDir
	if dir == "" {
		dir = cfg.ArtifactDir
	}
	if dir == "" {
		dir = os.TempDir()
	}
	retention := sweepRetention
	if retention <= 0 {
		retention = cfg.ArtifactRetention
	}

	removed, err := artifact.Sweep(dir, retention, appLogger)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Removed %d expired artifact(s) from %s\n", removed, dir)
	return nil
}
