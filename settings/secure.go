package settings

import (
	"context"
	"fmt"

	"github.com/viant/scy"
)

// loadSecure reads the scy-encrypted settings document.
func (s *Service) loadSecure(ctx context.Context) (*document, error) {
	resource := scy.NewResource(&document{}, s.URL, s.encryptionKey)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load encrypted settings %v: %w", s.URL, err)
	}
	doc, ok := secret.Target.(*document)
	if !ok {
		return nil, fmt.Errorf("unexpected settings payload type %T", secret.Target)
	}
	return doc, nil
}

// storeSecure writes the settings document through scy.
func (s *Service) storeSecure(ctx context.Context, doc *document) error {
	resource := scy.NewResource(&document{}, s.URL, s.encryptionKey)
	if err := scy.New().Store(ctx, scy.NewSecret(doc, resource)); err != nil {
		return fmt.Errorf("failed to store encrypted settings %v: %w", s.URL, err)
	}
	return nil
}
