package cloud

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Session owns all mutable visualizer state: the reference cloud and its
// index, the current pose, the movable cloud and the modes. Every operation
// holds the session lock for its full duration, so a pointer event is
// completely recomputed before the next one is accepted.
type Session struct {
	ID string

	mu           sync.Mutex
	gen          *Generator
	layer        InteractionLayer
	handleRadius float64

	dataMode   DataMode
	editMode   EditMode
	generation uint64
	reference  PointCloud
	index      *Index
	pose       Pose
	moved      PointCloud
	distance   float64

	listenersMu sync.RWMutex
	listeners   []func(Frame)
}

// NewSession validates the configuration and draws the initial reference
// cloud for its data mode
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:           uuid.NewString(),
		gen:          NewGenerator(cfg.GeneratorOptions(), cfg.Seed),
		layer:        cfg.InteractionLayer(),
		handleRadius: cfg.HandleRadius,
		dataMode:     cfg.DataMode,
		editMode:     cfg.EditMode,
	}

	if _, err := s.regenerateLocked(cfg.DataMode); err != nil {
		return nil, fmt.Errorf("generating initial cloud: %w", err)
	}
	log.Printf("[SESSION] %s started: dataMode=%s editMode=%s points=%d",
		s.ID, s.dataMode, s.editMode, len(s.reference))

	return s, nil
}

// Layer returns the interaction layer pointer events are resolved against
func (s *Session) Layer() InteractionLayer {
	return s.layer
}

// OnUpdate registers a listener called with every new frame. Listeners run
// after the session lock is released.
func (s *Session) OnUpdate(fn func(Frame)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(frame Frame) {
	s.listenersMu.RLock()
	listeners := make([]func(Frame), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(frame)
	}
}

// Regenerate switches to the given data mode and draws a fresh reference
// cloud. The pose resets to identity and the movable cloud equals the new
// reference. On error the session is left unchanged.
func (s *Session) Regenerate(mode DataMode) (Frame, error) {
	s.mu.Lock()
	frame, err := s.regenerateLocked(mode)
	s.mu.Unlock()
	if err != nil {
		return Frame{}, err
	}

	s.notify(frame)
	return frame, nil
}

// Randomize draws a fresh reference cloud for the current data mode
func (s *Session) Randomize() (Frame, error) {
	s.mu.Lock()
	frame, err := s.regenerateLocked(s.dataMode)
	s.mu.Unlock()
	if err != nil {
		return Frame{}, err
	}

	s.notify(frame)
	return frame, nil
}

func (s *Session) regenerateLocked(mode DataMode) (Frame, error) {
	reference, err := s.gen.Generate(mode)
	if err != nil {
		return Frame{}, err
	}
	index, err := NewIndex(reference)
	if err != nil {
		return Frame{}, fmt.Errorf("indexing reference cloud: %w", err)
	}
	distance, err := Chamfer(index, reference, reference)
	if err != nil {
		return Frame{}, fmt.Errorf("computing chamfer distance: %w", err)
	}

	s.dataMode = mode
	s.reference = reference
	s.index = index
	s.generation++
	s.pose = Pose{}
	s.moved = reference.Clone()
	s.distance = distance

	log.Printf("[SESSION] generation %d: %s cloud with %d points", s.generation, mode, len(reference))
	return s.frameLocked(), nil
}

// SetEditMode changes how subsequent pointer events are interpreted. It
// does not move the cloud.
func (s *Session) SetEditMode(mode EditMode) error {
	if !mode.Valid() {
		return &ConfigurationError{Option: "editMode", Value: mode.String(), Reason: "unknown edit mode"}
	}
	s.mu.Lock()
	s.editMode = mode
	s.mu.Unlock()
	return nil
}

// EditMode returns the current edit mode
func (s *Session) EditMode() EditMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}

// DataMode returns the current data mode
func (s *Session) DataMode() DataMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataMode
}

// HandlePointer turns a pointer event into a new pose and recomputes the
// movable cloud and distance. It reports false, leaving the session
// unchanged, when the event is not a usable hover over the interaction
// layer.
func (s *Session) HandlePointer(ev PointerEvent) (Frame, bool) {
	p, ok := s.layer.Resolve(ev)
	if !ok {
		return Frame{}, false
	}

	s.mu.Lock()
	pose, err := PoseFor(s.editMode, p)
	if err == nil {
		err = s.applyPoseLocked(pose)
	}
	if err != nil {
		s.mu.Unlock()
		log.Printf("[SESSION] ignoring pointer at (%.2f, %.2f): %v", p[0], p[1], err)
		return Frame{}, false
	}
	frame := s.frameLocked()
	s.mu.Unlock()

	s.notify(frame)
	return frame, true
}

// SetPose applies an explicit pose to the reference cloud
func (s *Session) SetPose(pose Pose) (Frame, error) {
	s.mu.Lock()
	if err := s.applyPoseLocked(pose); err != nil {
		s.mu.Unlock()
		return Frame{}, err
	}
	frame := s.frameLocked()
	s.mu.Unlock()

	s.notify(frame)
	return frame, nil
}

func (s *Session) applyPoseLocked(pose Pose) error {
	moved := pose.Apply(s.reference)
	distance, err := Chamfer(s.index, s.reference, moved)
	if err != nil {
		return fmt.Errorf("computing chamfer distance: %w", err)
	}
	s.pose = pose
	s.moved = moved
	s.distance = distance
	return nil
}

// Snapshot returns the current frame
func (s *Session) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Session) frameLocked() Frame {
	return Frame{
		SessionID:  s.ID,
		Generation: s.generation,
		DataMode:   s.dataMode,
		EditMode:   s.editMode,
		Reference:  s.reference.Clone(),
		Movable:    s.moved.Clone(),
		Pose:       s.pose,
		Handle:     s.pose.Handle(s.handleRadius),
		Distance:   s.distance,
		Title:      FormatTitle(s.distance),
	}
}
