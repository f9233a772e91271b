package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/viant/afs/file"
	"github.com/viant/kobodl/drm"
	"github.com/viant/kobodl/internal/ctxlog"
	"github.com/viant/kobodl/schema"
)

const (
	drmKobo  = "KDRM"
	drmAdobe = "AdobeDrm"
)

// Download fetches a product to outputPath. Ebooks are written through a
// temporary file and have KDRM removed when content keys are present;
// Adobe DRM content is kept encrypted under an .ade suffix. Audiobooks are
// downloaded as a directory of numbered spine files. The returned path is
// the final location, which may differ from outputPath for Adobe content.
func (c *Client) Download(ctx context.Context, metadata *schema.BookMetadata, bookType schema.BookType, outputPath string) (string, error) {
	isAudiobook := bookType == schema.BookTypeAudiobook
	var access *schema.ContentAccess
	urls := metadata.DownloadUrls
	if !isAudiobook {
		var err error
		// archived books come back with empty content urls
		if access, err = c.ContentAccess(ctx, metadata.ProductId(), schema.DisplayProfile); err != nil {
			return "", err
		}
		urls = access.ContentUrls
		if len(urls) == 0 {
			urls = access.DownloadUrls
		}
	}
	downloadURL, drmScheme, err := selectDownloadURL(metadata.ProductId(), urls)
	if err != nil {
		return "", err
	}
	if isAudiobook {
		return outputPath, c.downloadAudiobook(ctx, downloadURL, outputPath)
	}

	temporaryPath := outputPath + ".downloading"
	if err = c.downloadToFile(ctx, downloadURL, temporaryPath); err != nil {
		_ = c.fs.Delete(ctx, temporaryPath)
		return "", err
	}
	switch drmScheme {
	case drmAdobe:
		ctxlog.FromContext(ctx).Warn("unable to parse Adobe Digital Editions DRM; saving as an encrypted 'ade' file",
			"product", metadata.ProductId())
		if err = c.fs.Move(ctx, temporaryPath, outputPath+".ade"); err != nil {
			return "", err
		}
		return outputPath + ".ade", nil
	case drmKobo:
		remover := drm.NewRemover(c.user.DeviceId, c.user.UserId)
		if err = remover.Remove(temporaryPath, outputPath, access.Keys()); err != nil {
			_ = c.fs.Delete(ctx, temporaryPath)
			_ = c.fs.Delete(ctx, outputPath)
			return "", fmt.Errorf("drm removal failed for product %v: %w", metadata.ProductId(), err)
		}
		_ = c.fs.Delete(ctx, temporaryPath)
		return outputPath, nil
	default:
		if err = c.fs.Move(ctx, temporaryPath, outputPath); err != nil {
			return "", err
		}
		return outputPath, nil
	}
}

// selectDownloadURL picks the first rendition with a usable URL and
// normalizes it; the legacy `b` query parameter breaks signed downloads.
func selectDownloadURL(productId string, urls []schema.ContentURL) (string, string, error) {
	if len(urls) == 0 {
		return "", "", fmt.Errorf("download URL list is empty for product %v; archived books must be unarchived on the Kobo website first", productId)
	}
	for i := range urls {
		candidate := &urls[i]
		location := candidate.Location()
		if location == "" {
			continue
		}
		parsed, err := url.Parse(location)
		if err != nil {
			continue
		}
		query := parsed.Query()
		query.Del("b")
		parsed.RawQuery = query.Encode()

		drmScheme := ""
		if scheme := candidate.Drm(); scheme == drmKobo || scheme == drmAdobe {
			drmScheme = scheme
		}
		return parsed.String(), drmScheme, nil
	}
	var formats []string
	for _, candidate := range urls {
		formats = append(formats, fmt.Sprintf("DRMType: %q, UrlFormat: %q", candidate.Drm(), candidate.UrlFormat))
	}
	return "", "", fmt.Errorf("download URL for supported formats can't be found for product %v; available formats: %v",
		productId, strings.Join(formats, ", "))
}

func (c *Client) downloadToFile(ctx context.Context, URL, outputPath string) error {
	req, err := c.newRequest(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.plainClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %v returned status %v", URL, resp.StatusCode)
	}
	return c.fs.Upload(ctx, outputPath, file.DefaultFileOsMode, resp.Body)
}

func (c *Client) downloadAudiobook(ctx context.Context, URL, outputPath string) error {
	req, err := c.newRequest(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.plainClient.Do(req)
	if err != nil {
		return fmt.Errorf("audiobook download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audiobook download %v returned status %v", URL, resp.StatusCode)
	}
	spine := &schema.AudiobookSpine{}
	if err = decodeJSON(resp.Body, spine); err != nil {
		return fmt.Errorf("failed to decode audiobook spine: %w", err)
	}
	for _, item := range spine.Spine {
		sequence, err := strconv.Atoi(item.Id)
		if err != nil {
			return fmt.Errorf("unexpected spine item id %q: %w", item.Id, err)
		}
		itemPath := path.Join(outputPath, fmt.Sprintf("%d.%s", sequence+1, item.FileExtension))
		if err = c.downloadToFile(ctx, item.Url, itemPath); err != nil {
			return err
		}
	}
	return nil
}
