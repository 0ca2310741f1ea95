package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/depthportrait/internal/app"
	"github.com/ayusman/depthportrait/internal/assets"
	"github.com/ayusman/depthportrait/internal/blob"
	"github.com/ayusman/depthportrait/internal/capture"
	"github.com/ayusman/depthportrait/internal/server"
	"github.com/ayusman/depthportrait/internal/store"
)

// options are the command line flags.
type options struct {
	device      string
	depthFile   string
	colorDevice string
	images      string
	db          string
	addr        string
	web         string
	snapshots   string
	gui         bool
	tray        bool
	fps         int
	maxRange    float64
	debug       bool
}

var opts options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "depthportrait",
	Short: "Depth Portrait",
	Long: `Segments a depth sensor's view into a near/far band, finds the people in it
and draws a portrait over the first one.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.device, "device", "d", "0", "OpenNI2 depth device index")
	f.StringVarP(&opts.depthFile, "depth-file", "f", "", "Recorded depth video to play instead of a device")
	f.StringVar(&opts.colorDevice, "color-device", "", "Optional color camera index or video")
	f.StringVarP(&opts.images, "images", "i", "images", "Directory of portrait images")
	f.StringVar(&opts.db, "db", "", "SQLite database path (default ~/.depthportrait/depthportrait.db)")
	f.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address, empty to disable")
	f.StringVar(&opts.web, "web", "", "Static web directory (default: search web, ../web, ~/.depthportrait/web)")
	f.StringVar(&opts.snapshots, "snapshots", "", "Snapshot directory (default ~/.depthportrait/snapshots)")
	f.BoolVarP(&opts.gui, "gui", "g", false, "Show the rendered output in a window")
	f.BoolVar(&opts.tray, "tray", false, "Show a system tray menu")
	f.IntVar(&opts.fps, "fps", app.DefaultFPS, "Frame loop rate")
	f.Float64Var(&opts.maxRange, "max-range", capture.DefaultMaxRangeMM, "Distance in mm mapped to the darkest depth value")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, o options) (err error) {
	if o.gui && o.tray {
		return errors.New("--gui and --tray both need the main thread; pick one")
	}

	zl, err := newLogger(o.debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	dataDir, err := dataDir()
	if err != nil {
		return err
	}
	if o.db == "" {
		o.db = filepath.Join(dataDir, "depthportrait.db")
	}
	if o.snapshots == "" {
		o.snapshots = filepath.Join(dataDir, "snapshots")
	}
	if o.web == "" {
		o.web = findWebDir(dataDir)
	}

	st, err := store.New(o.db)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	logger.Infow("store opened", "path", st.Path())
	defer func() { err = multierr.Append(err, st.Close()) }()

	portraits, err := assets.LoadPortraits(o.images, assets.DefaultSize, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, assets.ClosePortraits(portraits)) }()

	depthDevice := o.device
	if o.depthFile != "" {
		depthDevice = o.depthFile
	}
	source := capture.NewSensor(capture.SensorConfig{
		DepthDevice: depthDevice,
		ColorDevice: o.colorDevice,
		MaxRangeMM:  o.maxRange,
		Logger:      logger.Named("capture"),
	})

	application, err := app.New(app.Config{
		Store:       st,
		Source:      source,
		Extractor:   blob.NewContourExtractor(),
		Portraits:   portraits,
		Logger:      logger.Named("app"),
		FPS:         o.fps,
		SnapshotDir: o.snapshots,
	})
	if err != nil {
		return err
	}

	if err := application.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer func() { err = multierr.Append(err, application.Stop()) }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srvErr <-chan error
	if o.addr != "" {
		if o.web != "" {
			logger.Infow("serving static files", "dir", o.web)
		}
		srv := server.New(server.Config{
			StaticDir: o.web,
			Store:     st,
			Runtime:   application,
			Logger:    logger.Named("server"),
		})
		srvErr = startServer(ctx, stop, func(ctx context.Context) error {
			return srv.Run(ctx, o.addr)
		}, logger)
	}

	switch {
	case o.gui:
		runWindow(ctx, application, logger)
	case o.tray:
		runTray(ctx, stop, application, logger)
	default:
		<-ctx.Done()
	}

	if err := serverError(srvErr); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// startServer runs serve in the background. A serve error is logged and
// cancels the run through cancel, so the window and tray modes shut down too.
// The result of serve is delivered on the returned channel.
func startServer(ctx context.Context, cancel context.CancelFunc, serve func(context.Context) error, logger *zap.SugaredLogger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		err := serve(ctx)
		if err != nil {
			logger.Errorw("server failed", "error", err)
		}
		errc <- err
		if err != nil {
			cancel()
		}
	}()
	return errc
}

// serverError returns the server's error if it has already stopped with one.
func serverError(errc <-chan error) error {
	if errc == nil {
		return nil
	}
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// dataDir returns ~/.depthportrait, creating it if needed.
func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".depthportrait")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
