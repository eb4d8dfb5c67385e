package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/rock-rabbit/eta"
)

// args 命令行参数
type args struct {
	URL         string                `arg:"positional,required" help:"resource url"`
	Outdir      string                `arg:"-d,--outdir" default:"./" help:"output directory"`
	Outname     string                `arg:"-o,--outname" help:"output file name, detected from the response when empty"`
	Config      string                `arg:"-c,--config" help:"toml file with estimator settings"`
	SpeedLimit  int                   `arg:"--speed-limit" help:"bytes per second, 0 means unlimited"`
	MinimumData int                   `arg:"--minimum-data" help:"samples required before an estimate is shown"`
	Window      time.Duration         `arg:"--window" help:"rolling window used for the estimate"`
	Regression  *eta.RegressionPolicy `arg:"--regression" help:"unavailable, clamp or raw"`
	Retry       int                   `arg:"--retry" default:"5" help:"request attempts"`
	RetryTime   time.Duration         `arg:"--retry-time" default:"1s" help:"wait between attempts"`
	Timeout     time.Duration         `arg:"--timeout" default:"10m" help:"total download timeout, 0 disables it"`
	Overwrite   bool                  `arg:"--overwrite" help:"overwrite an existing file instead of renaming"`
	Quiet       bool                  `arg:"-q,--quiet" help:"hide the progress bar"`
	Debug       bool                  `arg:"--debug" help:"print debug logs"`
}

func (args) Description() string {
	return "download a file and show a rolling-window ETA"
}

func main() {
	var a args
	arg.MustParse(&a)

	logger := zap.NewNop()
	if a.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a, logger); err != nil {
		fmt.Fprintln(os.Stderr, "download:", err)
		os.Exit(1)
	}
}

// estimatorConfig 合并配置文件和命令行参数
func estimatorConfig(a args) (*eta.Config, error) {
	cfg := eta.DefaultConfig()
	if a.Config != "" {
		loaded, err := eta.LoadConfig(a.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if a.MinimumData > 0 {
		cfg.MinimumData = a.MinimumData
	}
	if a.Window > 0 {
		cfg.MaximumDuration = a.Window
	}
	if a.Regression != nil {
		cfg.Regression = *a.Regression
	}
	return cfg, cfg.Validate()
}

// run 下载
func run(ctx context.Context, a args, logger *zap.Logger) error {
	cfg, err := estimatorConfig(a)
	if err != nil {
		return err
	}
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	r := &request{
		ctx:         ctx,
		uri:         a.URL,
		client:      &http.Client{Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}},
		header:      http.Header{"Accept": []string{"*/*"}},
		retryNumber: max(a.Retry, 1),
		retryTime:   a.RetryTime,
		logger:      logger,
	}
	res, err := r.get()
	if err != nil {
		return err
	}
	defer res.Body.Close()
	info := newResourceInfo(a.URL, res)

	// 预读文件头, 用于补全扩展名
	body := bufio.NewReaderSize(res.Body, eta.COPY_BUFFER_SIZE)
	head, _ := body.Peek(sniffSize)

	name := a.Outname
	if name == "" {
		name = withExtension(filterFileName(info.getFilename()), head)
	}
	if err := os.MkdirAll(a.Outdir, os.ModePerm); err != nil {
		return err
	}
	outpath := filepath.Join(a.Outdir, name)
	if fileExist(outpath) && !a.Overwrite {
		outpath, name = autoFileRenaming(a.Outdir, name)
	}
	logger.Debug("resource info",
		zap.String("uri", info.uri),
		zap.Int64("filesize", info.filesize),
		zap.String("contentType", info.contentType),
		zap.String("outpath", outpath),
	)

	outfile, err := os.Create(outpath)
	if err != nil {
		return err
	}
	defer outfile.Close()

	bar := eta.NewBar()
	bar.Hide = a.Quiet
	tracker, err := eta.NewTracker(info.filesize,
		eta.WithLabel(name),
		eta.WithBar(bar),
		eta.WithSpeedLimit(a.SpeedLimit),
		eta.WithTrackerConfig(cfg),
		eta.WithTrackerLogger(logger),
		eta.WithCalculatorOptions(eta.WithLogger(logger)),
	)
	if err != nil {
		return err
	}
	if err := tracker.Start(ctx); err != nil {
		return err
	}

	_, err = tracker.Copy(outfile, body)
	if errors.Is(err, context.Canceled) {
		tracker.Close()
	} else {
		tracker.Finish(err)
	}
	if err := <-tracker.Wait(); err != nil {
		return err
	}
	if tracker.Status() == eta.STATUS_CLOSE {
		return errors.New("interrupted")
	}
	fmt.Printf("saved: %s\n", outpath)
	return nil
}
