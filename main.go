package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/videotoaudio/extract-client/client"
	"github.com/videotoaudio/extract-client/config"
	"github.com/videotoaudio/extract-client/db"
	"github.com/videotoaudio/extract-client/exceptions"
	"github.com/videotoaudio/extract-client/job"
	"github.com/videotoaudio/extract-client/poll"
)

const version = "1.0.0"

var (
	formatFlag  = flag.String("format", "mp3", "output audio format: mp3, m4a, wav or opus")
	qualityFlag = flag.String("quality", "192", "output bitrate in kbps: 128, 192, 256 or 320")
	outFlag     = flag.String("o", "", "output file for downloaded audio (defaults to the filename the service picks)")
	limitFlag   = flag.Int("limit", 50, "maximum number of log entries to fetch")
	asyncFlag   = flag.Bool("async", false, "upload: return a pollable job instead of waiting for the audio inline")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: extract [flags] <command> [args]

commands:
  health               service health report
  info <url>           look up video metadata without downloading
  extract <url>        submit an extraction job and poll it to completion
  resume               pick up a job left running by a previous invocation
  process <url>        extract synchronously, print the stored audio url
  download <url>       extract synchronously, save the audio bytes locally
  upload <path>        upload a local video file and extract, printing
                       the stored audio url (-o saves the bytes locally)
  jobs                 list the service's jobs
  job <id>             show one job
  rm <id>              delete a job
  logs [api|web|errors] execution history
  stats                aggregate job counters
  cleanup              ask the service to drop old jobs and files

flags:
`)
	flag.PrintDefaults()
}

func main() {
	agent.Listen(agent.Options{})
	defer agent.Close()

	_ = godotenv.Load()

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal("unable to initialize logger: ", err)
	}

	reporter, err := exceptions.NewReporter(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		logger.Fatal("unable to initialize error reporter: ", err)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		logger.Fatal("bad API base url: ", err)
	}

	store, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("unable to open job state store: ", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		log:      logger.WithField("run", uuid.New().String()[:8]),
		reporter: reporter,
		store:    store,
		api:      client.NewDefault(base, cfg.RequestTimeout, cfg.UploadTimeout),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		a.log.Fatal(client.Reason(err))
	}
}

type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	log      *logrus.Entry
	reporter exceptions.Reporter
	store    db.Store
	api      *client.DefaultClient
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "health":
		return a.cmdHealth(ctx)
	case "info":
		return a.cmdInfo(ctx, arg(args, 0))
	case "extract":
		return a.cmdExtract(ctx, arg(args, 0))
	case "resume":
		return a.cmdResume(ctx)
	case "process":
		return a.cmdProcess(ctx, arg(args, 0))
	case "download":
		return a.cmdDownload(ctx, arg(args, 0))
	case "upload":
		return a.cmdUpload(ctx, arg(args, 0))
	case "jobs":
		return a.cmdJobs(ctx)
	case "job":
		return a.cmdJob(ctx, arg(args, 0))
	case "rm":
		return a.cmdDelete(ctx, arg(args, 0))
	case "logs":
		return a.cmdLogs(ctx, client.LogFilter(arg(args, 0)))
	case "stats":
		return a.cmdStats(ctx)
	case "cleanup":
		return a.cmdCleanup(ctx)
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// controller wires a polling controller whose terminal outcome lands
// on the returned channel.
func (a *app) controller() (*poll.Controller, chan error) {
	done := make(chan error, 1)
	ctl := poll.New(a.api, a.store)
	ctl.Interval = a.cfg.PollInterval
	ctl.Logger = a.logger
	ctl.Reporter = a.reporter
	ctl.OnUpdate = func(j *job.Job) {
		a.log.WithFields(logrus.Fields{
			"job_id":   j.ID,
			"status":   j.Status,
			"progress": j.Progress,
		}).Info(j.Message)
	}
	ctl.OnComplete = func(j *job.Job) {
		printResult(j)
		done <- nil
	}
	ctl.OnError = func(err error) {
		done <- err
	}
	return ctl, done
}

// wait blocks until the job settles or the user interrupts. On
// interrupt the loop stops but the saved id survives, so a later
// `extract resume` picks the job back up.
func (a *app) wait(ctx context.Context, ctl *poll.Controller, done chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		ctl.Stop()
		a.log.Info("interrupted; run `extract resume` to pick the job back up")
		return nil
	}
}

func (a *app) cmdHealth(ctx context.Context) error {
	h, err := a.api.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("status:              %s\n", h.Status)
	fmt.Printf("version:             %s\n", h.Version)
	fmt.Printf("storage configured:  %v\n", h.SupabaseConfigured)
	fmt.Printf("max video duration:  %d min\n", h.MaxDurationMinutes)
	return nil
}

func (a *app) cmdInfo(ctx context.Context, videoURL string) error {
	ctl, _ := a.controller()
	info, err := ctl.FetchInfo(ctx, videoURL)
	if err != nil {
		return err
	}
	printInfo(info)
	return nil
}

func (a *app) cmdExtract(ctx context.Context, videoURL string) error {
	ctl, done := a.controller()
	_, err := ctl.Submit(ctx, videoURL, job.ParseFormat(*formatFlag), job.ParseQuality(*qualityFlag))
	if err != nil {
		return err
	}
	return a.wait(ctx, ctl, done)
}

func (a *app) cmdResume(ctx context.Context) error {
	ctl, done := a.controller()
	j, ok := ctl.Resume(ctx)
	if !ok {
		fmt.Println("no saved job")
		return nil
	}
	if j.Status.Terminal() {
		return <-done
	}
	return a.wait(ctx, ctl, done)
}

func (a *app) cmdProcess(ctx context.Context, videoURL string) error {
	result, err := a.api.Process(ctx, client.ProcessRequest{
		VideoURL: videoURL,
		Format:   job.ParseFormat(*formatFlag),
		Quality:  job.ParseQuality(*qualityFlag),
	})
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	if result.VideoInfo != nil {
		printInfo(result.VideoInfo)
	}
	fmt.Printf("audio:      %s\n", result.AudioURL)
	fmt.Printf("size:       %s\n", result.FileSizeFormatted)
	fmt.Printf("processing: %.2fs\n", result.ProcessingTime)
	return nil
}

func (a *app) cmdDownload(ctx context.Context, videoURL string) error {
	req := client.ProcessRequest{
		VideoURL: videoURL,
		Format:   job.ParseFormat(*formatFlag),
		Quality:  job.ParseQuality(*qualityFlag),
	}
	return a.saveAudio(func(w io.Writer) (client.DownloadInfo, error) {
		return a.api.ProcessDownload(ctx, req, w)
	})
}

func (a *app) cmdUpload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format, quality := job.ParseFormat(*formatFlag), job.ParseQuality(*qualityFlag)

	if *asyncFlag {
		j, err := a.api.UploadExtract(ctx, f, filepath.Base(path), format, quality)
		if err != nil {
			return err
		}
		ctl, done := a.controller()
		ctl.Watch(j)
		return a.wait(ctx, ctl, done)
	}

	if *outFlag != "" {
		return a.saveAudio(func(w io.Writer) (client.DownloadInfo, error) {
			return a.api.UploadDownload(ctx, f, filepath.Base(path), format, quality, w)
		})
	}

	result, err := a.api.Upload(ctx, f, filepath.Base(path), format, quality)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Printf("audio:      %s\n", result.AudioURL)
	fmt.Printf("size:       %s\n", result.FileSizeFormatted)
	fmt.Printf("processing: %.2fs\n", result.ProcessingTime)
	return nil
}

// saveAudio streams a binary response into a temp file, then renames
// it to -o or to the filename the service chose.
func (a *app) saveAudio(fetch func(io.Writer) (client.DownloadInfo, error)) error {
	tmp, err := os.CreateTemp(".", "extract-*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	info, err := fetch(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	name := *outFlag
	if name == "" {
		name = info.Filename
	}
	if name == "" {
		name = "audio." + *formatFlag
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"file": name,
		"size": info.Size,
	}).Info("audio saved")
	if info.AudioURL != "" {
		fmt.Printf("stored copy: %s\n", info.AudioURL)
	}
	return nil
}

func (a *app) cmdJobs(ctx context.Context) error {
	jobs, err := a.api.ListJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		fmt.Printf("%s  %-12s %3d%%  %s\n", j.ID, j.Status, j.Progress, j.Message)
	}
	return nil
}

func (a *app) cmdJob(ctx context.Context, id string) error {
	j, err := a.api.GetJob(ctx, id)
	if err != nil {
		return err
	}
	printJob(j)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, id string) error {
	msg, err := a.api.DeleteJob(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdLogs(ctx context.Context, filter client.LogFilter) error {
	page, err := a.api.Logs(ctx, filter, *limitFlag)
	if err != nil {
		return err
	}
	for _, l := range page.Logs {
		line := fmt.Sprintf("%s  %-6s %-7s %s", l.Timestamp.Format("2006-01-02 15:04:05"), l.Source, l.Status, l.VideoURL)
		if l.ErrorMessage != "" {
			line += "  (" + l.ErrorMessage + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("%d of %d entries\n", len(page.Logs), page.Total)
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	js, err := a.api.JobStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("jobs:       %d (%d active)\n", js.TotalJobs, js.ActiveJobs)
	fmt.Printf("completed:  %d\n", js.CompletedJobs)
	fmt.Printf("failed:     %d\n", js.FailedJobs)

	stats, err := a.api.LogStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("history:    %d\n", stats.Total)
	fmt.Printf("pending:    %d\n", stats.Pending)
	fmt.Printf("processing: %d\n", stats.Processing)
	fmt.Printf("via api:    %d\n", stats.APITotal)
	fmt.Printf("via web:    %d\n", stats.WebTotal)
	return nil
}

func (a *app) cmdCleanup(ctx context.Context) error {
	result, err := a.api.Cleanup(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("cleaned %d files and %d jobs\n", result.FilesCleaned, result.JobsCleaned)
	return nil
}

func printJob(j *job.Job) {
	fmt.Printf("job:      %s\n", j.ID)
	fmt.Printf("status:   %s (%d%%)\n", j.Status, j.Progress)
	if j.Message != "" {
		fmt.Printf("message:  %s\n", j.Message)
	}
	if j.VideoInfo != nil {
		printInfo(j.VideoInfo)
	}
	if j.Status == job.StateCompleted {
		printResult(j)
	}
	if j.Status == job.StateFailed && j.Result != nil {
		fmt.Printf("error:    %s\n", j.Result.Err())
	}
}

func printInfo(info *job.VideoInfo) {
	fmt.Printf("title:    %s\n", info.Title)
	fmt.Printf("duration: %s\n", info.DurationFormatted)
	fmt.Printf("source:   %s\n", info.Source)
	if info.Channel != "" {
		fmt.Printf("channel:  %s\n", info.Channel)
	}
}

func printResult(j *job.Job) {
	r := j.Result
	if r == nil {
		return
	}
	fmt.Printf("audio:    %s\n", r.AudioURL)
	fmt.Printf("file:     %s (%s, %s %s)\n", r.Filename, r.FileSize, r.Format, r.Quality)
}
