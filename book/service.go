// Package book implements the account level operations built on top of the
// store client: listing libraries and wishlists across users and
// downloading products to disk.
package book

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/internal/ctxlog"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

// DefaultFileNameFormat renders the download file name; a slice of the
// revision id is appended to prevent collisions between editions.
const DefaultFileNameFormat = "{Author} - {Title} {ShortRevisionId}"

// Service runs library operations across activated users.
type Service struct {
	clientOptions  []client.Option
	fileNameFormat string
}

// New creates a book service.
func New(options ...Option) *Service {
	ret := &Service{fileNameFormat: DefaultFileNameFormat}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (s *Service) newClient(ctx context.Context, user *settings.User) (*client.Client, error) {
	ret := client.New(user, s.clientOptions...)
	if err := ret.LoadInitializationSettings(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// List returns the library of every supplied user as flattened rows
// sorted by title. Previews and refunded books are always skipped;
// finished books are skipped unless listAll is set.
func (s *Service) List(ctx context.Context, users []*settings.User, listAll bool) ([]*schema.Book, error) {
	var result []*schema.Book
	for _, user := range users {
		kobo, err := s.newClient(ctx, user)
		if err != nil {
			return nil, err
		}
		entitlements, err := kobo.BookList(ctx)
		if err != nil {
			return nil, err
		}
		for _, entitlement := range entitlements {
			row := flatten(ctx, entitlement, listAll)
			if row == nil {
				continue
			}
			row.Owner = user.Email
			row.OwnerId = user.UserId
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Title) < strings.ToLower(result[j].Title)
	})
	return result, nil
}

// WishList returns the wishlist of every supplied user.
func (s *Service) WishList(ctx context.Context, users []*settings.User) ([]*schema.Book, error) {
	var result []*schema.Book
	for _, user := range users {
		kobo, err := s.newClient(ctx, user)
		if err != nil {
			return nil, err
		}
		items, err := kobo.WishList(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.ProductMetadata == nil || item.ProductMetadata.Book == nil {
				continue
			}
			product := item.ProductMetadata.Book
			row := &schema.Book{
				RevisionId: item.CrossRevisionId,
				Title:      product.Title,
				Author:     product.Contributors,
				Owner:      user.Email,
				OwnerId:    user.UserId,
			}
			if product.Price != nil {
				row.Price = fmt.Sprintf("%v %v", product.Price.Price, product.Price.Currency)
			}
			result = append(result, row)
		}
	}
	return result, nil
}

// Get downloads a single product for the user and returns the absolute
// output path. The library sync runs on every call since it is the only
// known endpoint returning download URLs along with metadata.
func (s *Service) Get(ctx context.Context, user *settings.User, outputDir, productId string) (string, error) {
	if productId == "" {
		return "", fmt.Errorf("product id is required")
	}
	paths, err := s.download(ctx, user, outputDir, productId)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("product %v not found in the library of %v", productId, user.Email)
	}
	return paths[0], nil
}

// GetAll downloads every book in the user's library, skipping books whose
// output file already exists. Individual download failures are logged and
// skipped so one broken entitlement does not abort the run.
func (s *Service) GetAll(ctx context.Context, user *settings.User, outputDir string) ([]string, error) {
	return s.download(ctx, user, outputDir, "")
}

func (s *Service) download(ctx context.Context, user *settings.User, outputDir, productId string) ([]string, error) {
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	kobo, err := s.newClient(ctx, user)
	if err != nil {
		return nil, err
	}
	entitlements, err := kobo.BookList(ctx)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	var result []string
	for _, entitlement := range entitlements {
		if entitlement.NewEntitlement == nil {
			continue
		}
		metadata, bookType := entitlement.NewEntitlement.Metadata()
		if metadata == nil || bookType == schema.BookTypeSubscription {
			continue
		}
		fileName := FileName(metadata, s.fileNameFormat)
		if bookType == schema.BookTypeEbook {
			// audiobooks go into sub-directories, epub files directly into outputDir
			fileName += ".epub"
		}
		outputPath := filepath.Join(outputDir, fileName)

		if productId == "" {
			if _, err := os.Stat(outputPath); err == nil {
				logger.Info("skipping already downloaded book", "path", outputPath)
				continue
			}
		} else if productId != metadata.ProductId() {
			continue
		}
		if entitlement.NewEntitlement.Archived() {
			logger.Info("skipping archived book", "title", metadata.Title)
			continue
		}

		logger.Info("downloading book", "product", metadata.ProductId(), "path", outputPath)
		downloaded, err := kobo.Download(ctx, metadata, bookType, outputPath)
		if err != nil {
			if productId != "" {
				return nil, err
			}
			logger.Warn("skipping failed download", "product", metadata.ProductId(), "error", err)
			continue
		}
		result = append(result, downloaded)
		if productId != "" {
			return result, nil
		}
	}
	return result, nil
}

// flatten converts an entitlement to a display row, or nil when the
// entitlement should be skipped.
func flatten(ctx context.Context, entitlement *schema.Entitlement, listAll bool) *schema.Book {
	newEntitlement := entitlement.NewEntitlement
	if newEntitlement == nil {
		return nil
	}
	if bookEntitlement := newEntitlement.BookEntitlement; bookEntitlement != nil {
		// saved previews and refunded books
		if bookEntitlement.Accessibility == "Preview" || bookEntitlement.IsLocked {
			return nil
		}
	}
	if !listAll && newEntitlement.Finished() {
		return nil
	}
	metadata, bookType := newEntitlement.Metadata()
	if metadata == nil {
		ctxlog.FromContext(ctx).Warn("skipping entitlement of unknown type")
		return nil
	}
	if bookType == schema.BookTypeSubscription {
		return nil
	}
	return &schema.Book{
		RevisionId: metadata.ProductId(),
		Title:      metadata.Title,
		Author:     metadata.Author(),
		Archived:   newEntitlement.Archived(),
		Audiobook:  bookType == schema.BookTypeAudiobook,
	}
}
