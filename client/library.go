package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/viant/kobodl/schema"
)

const (
	resourceLibrarySync   = "library_sync"
	resourceUserWishlist  = "user_wishlist"
	resourceBook          = "book"
	resourceAudiobook     = "audiobook"
	resourceContentAccess = "content_access_book"

	syncTokenHeader  = "x-kobo-synctoken"
	syncResultHeader = "x-kobo-sync"
)

// BookList returns all library entitlements, following the sync-token
// pagination until the store stops asking to continue.
func (c *Client) BookList(ctx context.Context) ([]*schema.Entitlement, error) {
	if !c.user.IsAuthenticated() {
		return nil, fmt.Errorf("user %v: %w", c.user.Email, schema.ErrNotAuthenticated)
	}
	URL, err := c.Resource(resourceLibrarySync)
	if err != nil {
		return nil, err
	}
	var entitlements []*schema.Entitlement
	syncToken := ""
	for {
		header := http.Header{}
		if syncToken != "" {
			header.Set(syncTokenHeader, syncToken)
		}
		var page []*schema.Entitlement
		respHeader, err := c.getJSONWithHeader(ctx, URL, header, &page)
		if err != nil {
			return nil, fmt.Errorf("library sync failed: %w", err)
		}
		entitlements = append(entitlements, page...)
		if respHeader.Get(syncResultHeader) != "continue" {
			break
		}
		syncToken = respHeader.Get(syncTokenHeader)
		if syncToken == "" {
			break
		}
	}
	return entitlements, nil
}

// WishList returns all wishlist items, fetching pages until the reported
// page count is reached.
func (c *Client) WishList(ctx context.Context) ([]*schema.WishListItem, error) {
	URL, err := c.Resource(resourceUserWishlist)
	if err != nil {
		return nil, err
	}
	var items []*schema.WishListItem
	for pageIndex := 0; ; pageIndex++ {
		params := url.Values{}
		params.Set("PageIndex", fmt.Sprintf("%d", pageIndex))
		params.Set("PageSize", "100")
		page := &schema.WishListPage{}
		if err = c.getJSON(ctx, URL+"?"+params.Encode(), nil, page); err != nil {
			return nil, fmt.Errorf("wishlist fetch failed: %w", err)
		}
		items = append(items, page.Items...)
		if pageIndex+1 >= page.TotalPageCount {
			break
		}
	}
	return items, nil
}

// BookInfo fetches product metadata, trying the ebook endpoint first and
// falling back to the audiobook endpoint.
func (c *Client) BookInfo(ctx context.Context, productId string) (*schema.BookMetadata, error) {
	metadata := &schema.BookMetadata{}
	ebookURL, err := c.Resource(resourceBook)
	if err != nil {
		return nil, err
	}
	if err = c.getJSON(ctx, strings.ReplaceAll(ebookURL, "{ProductId}", productId), nil, metadata); err == nil {
		return metadata, nil
	}
	audiobookURL, err := c.Resource(resourceAudiobook)
	if err != nil {
		return nil, err
	}
	if err = c.getJSON(ctx, strings.ReplaceAll(audiobookURL, "{ProductId}", productId), nil, metadata); err != nil {
		return nil, fmt.Errorf("book info fetch failed for product %v: %w", productId, err)
	}
	return metadata, nil
}

// ContentAccess fetches the content access descriptor, which carries the
// download URLs and DRM content keys for a product.
func (c *Client) ContentAccess(ctx context.Context, productId, displayProfile string) (*schema.ContentAccess, error) {
	URL, err := c.Resource(resourceContentAccess)
	if err != nil {
		return nil, err
	}
	URL = strings.ReplaceAll(URL, "{ProductId}", productId)
	params := url.Values{}
	params.Set("DisplayProfile", displayProfile)
	access := &schema.ContentAccess{}
	if err = c.getJSON(ctx, URL+"?"+params.Encode(), nil, access); err != nil {
		return nil, fmt.Errorf("content access fetch failed for product %v: %w", productId, err)
	}
	return access, nil
}
