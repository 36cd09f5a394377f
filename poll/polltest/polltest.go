// Package polltest provides an in-memory poll.Source recording every
// registration so that Evented implementations can be tested without an
// event loop.
package polltest

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/scitags/nldgram/poll"
)

// Watch is what the Source remembers about a registered descriptor.
type Watch struct {
	Token    poll.Token
	Interest poll.Interest
	Opts     poll.Opts
}

// Source mimics the semantics of epoll_ctl(2): adding a watched descriptor
// fails with EEXIST while modifying or deleting an unknown one fails with
// ENOENT.
type Source struct {
	mu      sync.Mutex
	watches map[int]Watch

	// Calls counts every successful call by method name.
	Calls map[string]int
}

var _ poll.Source = (*Source)(nil)

func New() *Source {
	return &Source{
		watches: map[int]Watch{},
		Calls:   map[string]int{},
	}
}

func (s *Source) RegisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[fd]; ok {
		return fmt.Errorf("register %d: %w", fd, syscall.EEXIST)
	}
	s.watches[fd] = Watch{tok, in, opts}
	s.Calls["register"]++
	return nil
}

func (s *Source) ReregisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[fd]; !ok {
		return fmt.Errorf("reregister %d: %w", fd, syscall.ENOENT)
	}
	s.watches[fd] = Watch{tok, in, opts}
	s.Calls["reregister"]++
	return nil
}

func (s *Source) DeregisterFd(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watches[fd]; !ok {
		return fmt.Errorf("deregister %d: %w", fd, syscall.ENOENT)
	}
	delete(s.watches, fd)
	s.Calls["deregister"]++
	return nil
}

// Len returns the number of watched descriptors.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// Watch returns the registration of fd, if any.
func (s *Source) Watch(fd int) (Watch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watches[fd]
	return w, ok
}
