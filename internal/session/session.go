package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mxschlz/psypy/internal/charts"
	"github.com/mxschlz/psypy/internal/config"
	"github.com/mxschlz/psypy/internal/events"
	logger "github.com/mxschlz/psypy/internal/logging"
)

// Session coordinates one experiment run: it owns the settings, the per-run
// logger, the clocks, the frame counter and the append-only event log, and it
// drives the devices attached to it. Rendering and input polling belong to
// the presentation toolkit behind the Display interface.
//
// A Session is single-threaded: the run loop alone calls its methods.
type Session struct {
	OutputStr string
	OutputDir string
	Settings  *config.Settings
	Log       *zap.Logger

	display Display
	clock   *Clock // global; reset to 0 on the first flip
	timer   *Clock // phase timer

	events   *events.Log
	expStart float64
	expStop  float64
	started  bool
	closed   bool

	nrFrames       int // refreshes in the current phase
	totalFrames    int
	lastFlip       time.Time
	frameIntervals []float64

	tracker      Eyetracker
	trackerReady bool
	pulse        PulseEmulator
	archive      Archiver
}

// Option attaches optional collaborators to a Session.
type Option func(*Session)

// WithEyetracker attaches an eyetracker implementation.
func WithEyetracker(t Eyetracker) Option {
	return func(s *Session) { s.tracker = t }
}

// WithPulseEmulator attaches an MRI pulse emulator, started on the first flip
// when mri.simulate is set.
func WithPulseEmulator(p PulseEmulator) Option {
	return func(s *Session) { s.pulse = p }
}

// WithArchiver attaches a run archive used at close.
func WithArchiver(a Archiver) Option {
	return func(s *Session) { s.archive = a }
}

// AttachArchiver sets the run archive after construction, for archives that
// need the session's logger or resolved settings to be built.
func (s *Session) AttachArchiver(a Archiver) {
	s.archive = a
}

// New creates a session named outputStr (e.g. "sub-01_ses-post_run-1").
// Settings are loaded from settingsPath, or from the built-in defaults when
// the path is empty, and the resolved settings are snapshotted to
// <outputdir>/<outputStr>_expsettings.yml immediately.
func New(outputStr, settingsPath string, display Display, opts ...Option) (*Session, error) {
	cfg, err := config.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	outputDir := cfg.Output.Directory
	log, err := logger.Init(outputDir, outputStr, cfg.Logging)
	if err != nil {
		return nil, err
	}
	if settingsPath == "" {
		log.Warn("no settings file given; using default settings")
	}

	if err := cfg.Save(filepath.Join(outputDir, outputStr+"_expsettings.yml")); err != nil {
		return nil, err
	}

	s := &Session{
		OutputStr: outputStr,
		OutputDir: outputDir,
		Settings:  cfg,
		Log:       log,
		display:   display,
		clock:     NewClock(),
		timer:     NewClock(),
		events:    events.NewLog(),
	}
	for _, opt := range opts {
		opt(s)
	}

	log.Info("session created",
		zap.String("output", outputStr),
		zap.String("output_dir", outputDir),
		zap.Bool("mri_simulate", cfg.MRI.Simulate),
		zap.Bool("eyetracker", cfg.Eyetracker.Enabled),
	)
	return s, nil
}

// StartExperiment arms the start timestamp on the next flip and presents it.
// The first presented frame defines t=0 for all onsets.
func (s *Session) StartExperiment() error {
	if s.started {
		return errors.New("experiment already started")
	}
	s.display.OnFlip(s.setExpStart)
	if err := s.display.Flip(); err != nil {
		return fmt.Errorf("start flip: %w", err)
	}
	s.started = true
	s.Log.Info("experiment started", zap.Float64("start_abs", s.expStart))
	return nil
}

// setExpStart runs on the first flip; it timestamps the start and zeroes
// the clocks.
func (s *Session) setExpStart() {
	s.expStart = s.clock.Seconds()
	s.clock.Reset()
	s.timer.Reset()

	if s.pulse != nil && s.Settings.MRI.Simulate {
		if err := s.pulse.Start(); err != nil {
			s.Log.Error("could not start pulse emulator", zap.Error(err))
		}
	}
}

// setExpStop runs on the last flip.
func (s *Session) setExpStop() {
	s.expStop = s.clock.Seconds()
}

// LogEvent appends one event at the current clock time. A phase event
// consumes the frame counter and restarts the phase timer; a response event
// leaves both alone.
func (s *Session) LogEvent(trialNr int, eventType string, phase int, response string) {
	e := events.Event{
		TrialNr:   trialNr,
		Onset:     s.clock.Seconds(),
		EventType: eventType,
		Phase:     phase,
		Response:  response,
		NrFrames:  s.nrFrames,
	}
	s.events.Append(e)

	if eventType != events.EventResponse {
		s.nrFrames = 0
		s.timer.Reset()
	}

	s.Log.Debug("event logged",
		zap.Int("trial_nr", trialNr),
		zap.Float64("onset", e.Onset),
		zap.String("event_type", eventType),
		zap.Int("phase", phase),
	)
}

// TickFrame counts one display refresh and records its interval.
func (s *Session) TickFrame() {
	now := time.Now()
	if !s.lastFlip.IsZero() {
		s.frameIntervals = append(s.frameIntervals, now.Sub(s.lastFlip).Seconds())
	}
	s.lastFlip = now
	s.nrFrames++
	s.totalFrames++
}

// PhaseTime returns seconds since the current phase began.
func (s *Session) PhaseTime() float64 {
	return s.timer.Seconds()
}

// DisplayText hands text to the display and presents it on the next flip.
// Waiting for a keypress is the toolkit's job, not the session's.
func (s *Session) DisplayText(text string) error {
	s.display.DrawText(text)
	s.Log.Debug("text displayed", zap.String("text", text))
	return s.display.Flip()
}

// Close finalizes the run. It must always be called, even when the
// experiment is quit manually: it captures the stop timestamp on a last
// flip, reconciles the event log into the output table, and writes the TSV,
// the frame-interval chart and the optional archive. Close runs exactly once;
// a failure here means the run's data is not durably saved and is returned
// as-is.
func (s *Session) Close() error {
	if s.closed {
		return errors.New("session already closed")
	}
	if !s.started {
		return errors.New("session was never started")
	}
	s.closed = true

	s.display.OnFlip(s.setExpStop)
	if err := s.display.Flip(); err != nil {
		return fmt.Errorf("stop flip: %w", err)
	}

	rows, err := events.Finalize(s.events.Events(), s.expStart, s.expStop, s.nrFrames)
	if err != nil {
		return fmt.Errorf("finalize run %s: %w", s.OutputStr, err)
	}

	tsvPath := filepath.Join(s.OutputDir, s.OutputStr+".tsv")
	if err := events.WriteTSV(tsvPath, rows); err != nil {
		return err
	}
	s.Log.Info("run table written",
		zap.String("path", tsvPath),
		zap.Int("events", len(rows)),
		zap.Float64("duration", s.expStop),
	)

	if len(s.frameIntervals) > 0 {
		chartPath := filepath.Join(s.OutputDir, s.OutputStr+"_frames.html")
		if err := charts.WriteFrameIntervals(chartPath, s.frameIntervals); err != nil {
			// the TSV is the durable record; a chart failure is not fatal
			s.Log.Warn("could not write frame-interval chart", zap.Error(err))
		}
	}

	if s.archive != nil {
		if err := s.archive.SaveRun(s.OutputStr, s.expStart, s.expStop, rows); err != nil {
			return fmt.Errorf("archive run %s: %w", s.OutputStr, err)
		}
	}

	if s.pulse != nil && s.Settings.MRI.Simulate {
		if err := s.pulse.Stop(); err != nil {
			s.Log.Error("could not stop pulse emulator", zap.Error(err))
		}
	}
	if s.trackerReady {
		if err := s.tracker.StopRecording(); err != nil {
			s.Log.Error("could not stop eyetracker recording", zap.Error(err))
		}
		if err := s.tracker.Close(); err != nil {
			s.Log.Error("could not close eyetracker", zap.Error(err))
		}
	}

	s.Log.Info("experiment closed", zap.Float64("stop", s.expStop), zap.Int("frames", s.totalFrames))
	return s.display.Close()
}

// Events returns a snapshot of the raw log, mainly for inspection in tests
// and the simulate command.
func (s *Session) Events() []events.Event {
	return s.events.Events()
}
