//go:build !linux

package reactor

type Signal struct{}

func NewSignal(r *Reactor, callback func()) (*Signal, error) { return nil, ErrUnsupportedPlatform }

func (s *Signal) Start() error  { return ErrUnsupportedPlatform }
func (s *Signal) Stop() error   { return ErrUnsupportedPlatform }
func (s *Signal) Close() error  { return ErrUnsupportedPlatform }
func (s *Signal) Fire()         {}
