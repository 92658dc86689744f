// Package server implements the development server: it builds the site,
// serves the output, watches the input and reloads connected browsers after
// each rebuild.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	smw "git.home.luguber.info/inful/docsite/internal/server/middleware"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// Rebuild triggers recorded in metrics.
const (
	TriggerInitial  = "initial"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// SiteBuilder runs a full build.
type SiteBuilder interface {
	Build(ctx context.Context) (*site.Report, error)
}

// Options configures a Server.
type Options struct {
	Addr            string
	InputDir        string
	OutputDir       string
	LiveReload      bool
	Debounce        time.Duration
	RebuildInterval time.Duration
	MetricsPath     string
	MetricsHandler  http.Handler
	Recorder        metrics.Recorder
	Logger          *slog.Logger
}

// Server owns the HTTP listener, the watcher and the rebuild worker.
type Server struct {
	builder SiteBuilder
	opts    Options
	hub     *LiveReloadHub
	status  *buildStatus
	adapter *derrors.HTTPErrorAdapter
	log     *slog.Logger

	requests chan string
}

// New returns a server for builder.
func New(builder SiteBuilder, opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	return &Server{
		builder:  builder,
		opts:     opts,
		hub:      NewLiveReloadHub(),
		status:   &buildStatus{},
		adapter:  derrors.NewHTTPErrorAdapter(opts.Logger),
		log:      opts.Logger,
		requests: make(chan string, 1),
	}
}

// Hub exposes the live reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Handler returns the routes served by Run.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.LiveReload {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}
	mux.HandleFunc("/healthz", s.status.healthHandler(s.adapter))
	if s.opts.MetricsPath != "" && s.opts.MetricsHandler != nil {
		mux.Handle(s.opts.MetricsPath, s.opts.MetricsHandler)
	}
	mux.Handle("/", newSiteHandler(s.opts.OutputDir, s.status, s.opts.LiveReload))
	return smw.Chain(s.log, s.adapter)(mux)
}

// Rebuild runs one build, updates the status and notifies browsers.
func (s *Server) Rebuild(ctx context.Context, trigger string) (*site.Report, error) {
	s.opts.Recorder.IncRebuild(trigger)
	s.status.start()
	report, err := s.builder.Build(ctx)
	s.status.finish(report, err)
	if err != nil {
		s.log.Warn("Rebuild failed", logfields.Trigger(trigger), logfields.Error(err))
	}
	if report != nil {
		s.hub.Broadcast(report.BuildID)
	}
	return report, err
}

// Request queues a rebuild. Requests arriving while one is queued are
// merged into it.
func (s *Server) Request(trigger string) {
	select {
	case s.requests <- trigger:
	default:
		s.log.Debug("Rebuild already pending", logfields.Trigger(trigger))
	}
}

// Run builds once, then serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "listen failed").
			WithContext("addr", s.opts.Addr).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.log.Info("Serving site", logfields.Addr(ln.Addr().String()), logfields.Output(s.opts.OutputDir))

	_, _ = s.Rebuild(ctx, TriggerInitial)

	watcher, err := s.startWatcher()
	if err != nil {
		s.shutdown(srv)
		return err
	}
	defer func() { _ = watcher.Close() }()

	deb := newDebouncer(s.opts.Debounce)
	defer deb.Stop()

	if s.opts.RebuildInterval > 0 {
		sched, err := newRebuildScheduler(ctx, s.opts.RebuildInterval, func() { s.Request(TriggerSchedule) })
		if err != nil {
			s.shutdown(srv)
			return err
		}
		defer sched.Stop()
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.worker(ctx)
	}()

	filter := s.filter()
	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err, ok := <-serveErr:
			if ok && err != nil {
				runErr = derrors.WrapError(err, derrors.CategoryNetwork, "http server failed").Build()
			}
			break loop
		case ev, ok := <-watcher.Events:
			if !ok {
				break loop
			}
			s.handleEvent(watcher, filter, ev, deb)
		case err, ok := <-watcher.Errors:
			if !ok {
				break loop
			}
			s.log.Warn("Watcher error", logfields.Error(err))
		case <-deb.C:
			s.Request(TriggerWatch)
		}
	}

	s.shutdown(srv)
	<-workerDone
	return runErr
}

func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.requests:
			_, _ = s.Rebuild(ctx, trigger)
		}
	}
}

func (s *Server) filter() *watchFilter {
	return newWatchFilter(s.opts.InputDir, s.opts.OutputDir)
}

func (s *Server) startWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create watcher").Build()
	}
	if err := addDirsRecursive(w, s.opts.InputDir, s.filter()); err != nil {
		_ = w.Close()
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "watch input").
			WithContext("dir", s.opts.InputDir).
			Build()
	}
	s.log.Info("Watching for changes", logfields.Path(s.opts.InputDir))
	return w, nil
}

func (s *Server) handleEvent(w *fsnotify.Watcher, f *watchFilter, ev fsnotify.Event, deb *debouncer) {
	if f.ignore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create != 0 {
		_ = addDirsRecursive(w, ev.Name, f)
	}
	s.log.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	deb.Trigger()
}

func (s *Server) shutdown(srv *http.Server) {
	s.hub.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Warn("HTTP shutdown", logfields.Error(err))
	}
}

// AddrFor formats a listen address for port.
func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
