package session

import (
	"errors"
	"fmt"

	"github.com/mxschlz/psypy/internal/events"
)

// ErrDeviceNotInitialized is returned when a hardware-dependent operation is
// invoked before the device was set up.
var ErrDeviceNotInitialized = errors.New("device not initialized")

// ErrEyetrackerDisabled is returned when eyetracker operations are requested
// on a session created with the eyetracker disabled.
var ErrEyetrackerDisabled = errors.New("session was created with the eyetracker disabled")

// Eyetracker is the hardware plugin boundary for gaze recording. The wire
// protocol lives entirely behind this interface.
type Eyetracker interface {
	Setup(address string) error
	Calibrate() error
	StartRecording() error
	StopRecording() error
	Close() error
}

// PulseEmulator is the boundary for simulated MRI trigger generation,
// started on the first flip and stopped at close.
type PulseEmulator interface {
	Start() error
	Stop() error
}

// Archiver persists a finalized run somewhere durable beyond the TSV.
type Archiver interface {
	SaveRun(name string, startAbs, stopAbs float64, rows []events.Row) error
}

// InitEyetracker hands the configured address to the attached tracker.
func (s *Session) InitEyetracker() error {
	if !s.Settings.Eyetracker.Enabled {
		return ErrEyetrackerDisabled
	}
	if s.tracker == nil {
		return fmt.Errorf("no eyetracker attached: %w", ErrDeviceNotInitialized)
	}
	if err := s.tracker.Setup(s.Settings.Eyetracker.Address); err != nil {
		return fmt.Errorf("eyetracker setup: %w", err)
	}
	s.trackerReady = true
	return nil
}

// CalibrateEyetracker runs the tracker's calibration routine.
func (s *Session) CalibrateEyetracker() error {
	if !s.trackerReady {
		return fmt.Errorf("cannot calibrate: %w", ErrDeviceNotInitialized)
	}
	return s.tracker.Calibrate()
}

// StartRecordingEyetracker starts gaze recording.
func (s *Session) StartRecordingEyetracker() error {
	if !s.trackerReady {
		return fmt.Errorf("cannot start recording: %w", ErrDeviceNotInitialized)
	}
	return s.tracker.StartRecording()
}

// StopRecordingEyetracker stops gaze recording.
func (s *Session) StopRecordingEyetracker() error {
	if !s.trackerReady {
		return fmt.Errorf("cannot stop recording: %w", ErrDeviceNotInitialized)
	}
	return s.tracker.StopRecording()
}
