package schema

// BookType discriminates entitlement payloads returned by library sync.
type BookType int

const (
	BookTypeEbook BookType = iota + 1
	BookTypeAudiobook
	BookTypeSubscription
)

// Book is the flattened view of a library entitlement.
type Book struct {
	RevisionId string `json:"RevisionId"`
	Title      string `json:"Title"`
	Author     string `json:"Author"`
	Archived   bool   `json:"Archived"`
	Audiobook  bool   `json:"Audiobook"`
	Owner      string `json:"Owner"`
	OwnerId    string `json:"OwnerId,omitempty"`
	Price      string `json:"Price,omitempty"`
}

// Entitlement is one element of the library sync response.
type Entitlement struct {
	NewEntitlement *NewEntitlement `json:"NewEntitlement,omitempty"`
}

// NewEntitlement holds at most one of the metadata variants; the populated
// one determines the book type.
type NewEntitlement struct {
	BookEntitlement             *BookEntitlement `json:"BookEntitlement,omitempty"`
	AudiobookEntitlement        *BookEntitlement `json:"AudiobookEntitlement,omitempty"`
	BookMetadata                *BookMetadata    `json:"BookMetadata,omitempty"`
	AudiobookMetadata           *BookMetadata    `json:"AudiobookMetadata,omitempty"`
	BookSubscriptionEntitlement *BookMetadata    `json:"BookSubscriptionEntitlement,omitempty"`
	ReadingState                *ReadingState    `json:"ReadingState,omitempty"`
}

// Metadata returns the populated metadata variant and its type.
func (e *NewEntitlement) Metadata() (*BookMetadata, BookType) {
	switch {
	case e.BookMetadata != nil:
		return e.BookMetadata, BookTypeEbook
	case e.AudiobookMetadata != nil:
		return e.AudiobookMetadata, BookTypeAudiobook
	case e.BookSubscriptionEntitlement != nil:
		return e.BookSubscriptionEntitlement, BookTypeSubscription
	}
	return nil, 0
}

// Archived returns true when the entitlement was removed from the account.
func (e *NewEntitlement) Archived() bool {
	if e.BookEntitlement != nil {
		return e.BookEntitlement.IsRemoved
	}
	if e.AudiobookEntitlement != nil {
		return e.AudiobookEntitlement.IsRemoved
	}
	return false
}

// Finished returns true when the reading status reports the book as read.
func (e *NewEntitlement) Finished() bool {
	if e.ReadingState == nil || e.ReadingState.StatusInfo == nil {
		return false
	}
	return e.ReadingState.StatusInfo.Status == "Finished"
}

// BookEntitlement carries access flags shared by ebook and audiobook
// entitlements.
type BookEntitlement struct {
	Accessibility string `json:"Accessibility,omitempty"`
	IsLocked      bool   `json:"IsLocked,omitempty"`
	IsRemoved     bool   `json:"IsRemoved,omitempty"`
}

type ReadingState struct {
	StatusInfo *StatusInfo `json:"StatusInfo,omitempty"`
}

type StatusInfo struct {
	Status string `json:"Status,omitempty"`
}

// BookMetadata is the subset of product metadata the workflow consumes.
type BookMetadata struct {
	RevisionId       string            `json:"RevisionId,omitempty"`
	Id               string            `json:"Id,omitempty"`
	Title            string            `json:"Title,omitempty"`
	ContributorRoles []ContributorRole `json:"ContributorRoles,omitempty"`
	DownloadUrls     []ContentURL      `json:"DownloadUrls,omitempty"`
}

// ProductId returns the revision id, falling back to the plain id.
func (m *BookMetadata) ProductId() string {
	if m.RevisionId != "" {
		return m.RevisionId
	}
	return m.Id
}

// Author joins the contributors holding the Author role. The role field is
// not filled by the library sync endpoint, so the first contributor is
// used as a fallback.
func (m *BookMetadata) Author() string {
	var authors []string
	for _, contributor := range m.ContributorRoles {
		if contributor.Role == "Author" {
			authors = append(authors, contributor.Name)
		}
	}
	if len(authors) == 0 && len(m.ContributorRoles) > 0 {
		authors = append(authors, m.ContributorRoles[0].Name)
	}
	return joinAuthors(authors)
}

type ContributorRole struct {
	Name string `json:"Name,omitempty"`
	Role string `json:"Role,omitempty"`
}

// ContentURL describes one downloadable rendition. The store API uses both
// DrmType and DRMType spellings depending on the endpoint.
type ContentURL struct {
	DrmType     string `json:"DrmType,omitempty"`
	DRMType     string `json:"DRMType,omitempty"`
	DownloadUrl string `json:"DownloadUrl,omitempty"`
	Url         string `json:"Url,omitempty"`
	UrlFormat   string `json:"UrlFormat,omitempty"`
}

// Drm returns the DRM scheme regardless of the field spelling.
func (c *ContentURL) Drm() string {
	if c.DrmType != "" {
		return c.DrmType
	}
	return c.DRMType
}

// Location returns the download URL regardless of the field spelling.
func (c *ContentURL) Location() string {
	if c.DownloadUrl != "" {
		return c.DownloadUrl
	}
	return c.Url
}

// ContentAccess is the content_access_book response.
type ContentAccess struct {
	ContentKeys  []ContentKey `json:"ContentKeys,omitempty"`
	ContentUrls  []ContentURL `json:"ContentUrls,omitempty"`
	DownloadUrls []ContentURL `json:"DownloadUrls,omitempty"`
}

// Keys returns the content keys indexed by entry name.
func (a *ContentAccess) Keys() map[string]string {
	if len(a.ContentKeys) == 0 {
		return map[string]string{}
	}
	keys := make(map[string]string, len(a.ContentKeys))
	for _, key := range a.ContentKeys {
		keys[key.Name] = key.Value
	}
	return keys
}

type ContentKey struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// AudiobookSpine is the audiobook download descriptor.
type AudiobookSpine struct {
	Spine []SpineItem `json:"Spine"`
}

type SpineItem struct {
	Id            string `json:"Id"`
	Url           string `json:"Url"`
	FileExtension string `json:"FileExtension"`
}

// WishListPage is one page of the user wishlist.
type WishListPage struct {
	Items          []*WishListItem `json:"Items"`
	TotalPageCount int             `json:"TotalPageCount"`
}

type WishListItem struct {
	DateAdded       string           `json:"DateAdded,omitempty"`
	CrossRevisionId string           `json:"CrossRevisionId,omitempty"`
	ProductMetadata *ProductMetadata `json:"ProductMetadata,omitempty"`
}

type ProductMetadata struct {
	Book *ProductBook `json:"Book,omitempty"`
}

type ProductBook struct {
	Title        string `json:"Title,omitempty"`
	Contributors string `json:"Contributors,omitempty"`
	Price        *Price `json:"Price,omitempty"`
}

type Price struct {
	Currency string  `json:"Currency,omitempty"`
	Price    float64 `json:"Price,omitempty"`
}

func joinAuthors(authors []string) string {
	result := ""
	for i, author := range authors {
		if i > 0 {
			result += " & "
		}
		result += author
	}
	return result
}
