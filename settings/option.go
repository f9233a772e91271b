package settings

// Option represents a settings service option.
type Option func(s *Service)

// WithEncryptionKey switches the document to scy-encrypted storage, e.g.
// "blowfish://default".
func WithEncryptionKey(key string) Option {
	return func(s *Service) {
		s.encryptionKey = key
	}
}
