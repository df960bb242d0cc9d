package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/kalman/kf"
	"github.com/milosgajdos/go-kalman/model"
	"github.com/milosgajdos/go-kalman/param"
	"github.com/milosgajdos/go-kalman/rnd"
	"github.com/milosgajdos/go-kalman/sim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// app carries state shared by all commands
type app struct {
	log *zap.SugaredLogger
}

// NewCmd creates the estimate root command with the track and mean subcommands
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	a := &app{log: zap.NewNop().Sugar()}

	rootCmd := &cobra.Command{
		Use:           "estimate [command] [flags]",
		Short:         "estimate runs Kalman filter tracking and running mean simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "disable logging")

	trackCmd := &cobra.Command{
		Use:   "track [flags]",
		Short: "Track a noisy circular trajectory with a Kalman filter",
		Args:  cobra.NoArgs,
		RunE:  a.doTrack,
	}
	trackCmd.Flags().String("model", "cv", "`<Model>` of the tracked target: cv, ca or unicycle")
	trackCmd.Flags().StringP("config", "c", "", "`<Path>` to YAML scenario configuration")
	trackCmd.Flags().StringP("plot", "p", "", "`<Dir>` to save the tracking plots to")
	trackCmd.Flags().Float64("q", 0.001, "process noise covariance scale")
	trackCmd.Flags().Float64("r", 0.1, "measurement noise covariance scale")

	meanCmd := &cobra.Command{
		Use:   "mean [flags]",
		Short: "Estimate mean and variance of normally distributed samples",
		Args:  cobra.NoArgs,
		RunE:  a.doMean,
	}
	meanCmd.Flags().IntP("samples", "n", 1000, "number of samples")
	meanCmd.Flags().Float64("mu", 0.0, "mean of the sampled distribution")
	meanCmd.Flags().Float64("sigma", 1.0, "standard deviation of the sampled distribution")
	meanCmd.Flags().Float64("level", 0.95, "confidence level of the mean interval")
	meanCmd.Flags().Uint64("seed", 1, "random number generator seed")

	rootCmd.AddCommand(
		trackCmd,
		meanCmd,
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	if quiet {
		return nil
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}

	var logger *zap.Logger
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.log = logger.Sugar()
	return nil
}

func (a *app) doTrack(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("model")
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	dir, err := cmd.Flags().GetString("plot")
	if err != nil {
		return err
	}
	q, err := cmd.Flags().GetFloat64("q")
	if err != nil {
		return err
	}
	r, err := cmd.Flags().GetFloat64("r")
	if err != nil {
		return err
	}

	c, err := loadConfig(path)
	if err != nil {
		return err
	}
	a.log.Debugw("scenario configured", "config", c)

	m, err := newModel(name, c.DT, q, r)
	if err != nil {
		return err
	}

	f, err := kf.New(m)
	if err != nil {
		return err
	}

	res, err := sim.Run(f, c)
	if err != nil {
		return err
	}
	a.log.Infow("tracking finished", "model", name, "measMSE", res.MeasMSE, "estMSE", res.EstMSE)

	fmt.Fprintf(cmd.OutOrStdout(), "measurement MSE: %.6f\n", res.MeasMSE)
	fmt.Fprintf(cmd.OutOrStdout(), "estimate MSE:    %.6f\n", res.EstMSE)

	if dir == "" {
		return nil
	}

	return a.savePlots(dir, c.DT, res)
}

func (a *app) savePlots(dir string, dt float64, res *sim.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	track, err := sim.New2DPlot(res.Truth, res.Meas, res.Est)
	if err != nil {
		return err
	}
	trackPath := filepath.Join(dir, "track.png")
	if err := track.Save(6*vg.Inch, 6*vg.Inch, trackPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	a.log.Infow("plot saved", "path", trackPath)

	errPlot, err := sim.NewErrorPlot(dt, sim.Errors(res.Truth, res.Meas), sim.Errors(res.Truth, res.Est))
	if err != nil {
		return err
	}
	errPath := filepath.Join(dir, "error.png")
	if err := errPlot.Save(8*vg.Inch, 4*vg.Inch, errPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	a.log.Infow("plot saved", "path", errPath)

	return nil
}

func (a *app) doMean(cmd *cobra.Command, args []string) error {
	n, err := cmd.Flags().GetInt("samples")
	if err != nil {
		return err
	}
	mu, err := cmd.Flags().GetFloat64("mu")
	if err != nil {
		return err
	}
	sigma, err := cmd.Flags().GetFloat64("sigma")
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetFloat64("level")
	if err != nil {
		return err
	}
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return err
	}

	if sigma < 0 {
		return fmt.Errorf("invalid standard deviation: %v", sigma)
	}

	z, err := param.ZScore(level)
	if err != nil {
		return err
	}

	cov := mat.NewSymDense(1, []float64{sigma * sigma})
	samples, err := rnd.WithCovN(cov, n, rand.NewSource(seed))
	if err != nil {
		return err
	}

	rm := param.NewRunningMean()
	for i := 0; i < n; i++ {
		rm.Update(mu + samples.At(0, i))
	}

	mean, variance, err := rm.Get()
	if err != nil {
		return err
	}
	ci, err := rm.Confidence(z)
	if err != nil {
		return err
	}
	a.log.Infow("running mean finished", "samples", rm.Count(), "mean", mean, "variance", variance)

	fmt.Fprintf(cmd.OutOrStdout(), "samples:  %d\n", rm.Count())
	fmt.Fprintf(cmd.OutOrStdout(), "mean:     %.6f +/- %.6f (%.0f%%)\n", mean, ci, level*100)
	fmt.Fprintf(cmd.OutOrStdout(), "variance: %.6f\n", variance)

	return nil
}

// loadConfig reads scenario configuration from YAML file stored in path.
// Fields missing from the file keep their default values.
func loadConfig(path string) (sim.Config, error) {
	c := sim.DefaultConfig()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return c, c.Validate()
}

// newModel creates a tracking model of the given name
func newModel(name string, dt, q, r float64) (filter.Model, error) {
	switch name {
	case "cv":
		return model.NewConstantVelocity(dt, q, r)
	case "ca":
		return model.NewConstantAcceleration(dt, q, r)
	case "unicycle":
		return model.NewUnicycle(q, r)
	default:
		return nil, fmt.Errorf("unknown model: %s", name)
	}
}
