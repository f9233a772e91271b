package book

import "github.com/viant/kobodl/client"

// Option represents a book service option.
type Option func(s *Service)

// WithClientOptions sets options applied to every store client the
// service creates, which lets tests point it at a fake store.
func WithClientOptions(options ...client.Option) Option {
	return func(s *Service) {
		s.clientOptions = options
	}
}

// WithFileNameFormat overrides the download file name format.
func WithFileNameFormat(format string) Option {
	return func(s *Service) {
		s.fileNameFormat = format
	}
}
