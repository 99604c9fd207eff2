package audio

// Silent accepts every command without a module attached. Commands report
// false so callers see the same outcome as an unanswered module.
type Silent struct {
	tracks Tracks
	logger Logger
	volume int
}

// NewSilent returns a stand-in player.
func NewSilent(tracks Tracks) *Silent {
	return &Silent{tracks: tracks, logger: noopLogger{}, volume: VolumeDefault}
}

// SetLogger sets the logger.
func (s *Silent) SetLogger(logger Logger) { s.logger = logger }

// Begin logs that audio is disabled.
func (s *Silent) Begin() { s.logger.Info("audio disabled") }

// Play logs the track and reports false.
func (s *Silent) Play(track string) bool {
	s.logger.Debug("audio disabled, play skipped", "track", track)
	return false
}

func (s *Silent) Stop() bool { return s.Play(s.tracks.Stop) }
func (s *Silent) SetVolume(int) bool { return false }
func (s *Silent) VolumeUp() bool { return false }
func (s *Silent) VolumeDown() bool { return false }
func (s *Silent) Volume() int { return s.volume }
func (s *Silent) Tracks() Tracks { return s.tracks }
func (s *Silent) Close() error { return nil }
