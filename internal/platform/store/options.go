package store

import (
	"errors"

	"ringroster/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithClientInfo tags backend connections with the process role and build tag
// role defaults to Config.AppName
func WithClientInfo(role, tag string) Option {
	return func(s *Store) error {
		if role == "" && tag == "" {
			return errors.New("store: empty client info")
		}
		s.role, s.tag = role, tag
		return nil
	}
}
