package book

import (
	"strings"
	"unicode"

	"github.com/viant/kobodl/schema"
)

// fileNameSafe lists the punctuation allowed in output file names besides
// letters and digits.
const fileNameSafe = ` ,;.!(){}[]#$'-+@_`

// FileName renders the output file name, without extension, for a book.
// The format string may reference {Author}, {Title}, {RevisionId} and
// {ShortRevisionId}.
func FileName(metadata *schema.BookMetadata, format string) string {
	shortRevisionId := metadata.RevisionId
	if len(shortRevisionId) > 8 {
		shortRevisionId = shortRevisionId[:8]
	}
	replacer := strings.NewReplacer(
		"{Author}", SanitizeFileName(metadata.Author()),
		"{Title}", SanitizeFileName(metadata.Title),
		"{RevisionId}", metadata.RevisionId,
		"{ShortRevisionId}", shortRevisionId,
	)
	return replacer.Replace(format)
}

// SanitizeFileName drops characters unsafe in file names and trims
// leading and trailing spaces and dots.
func SanitizeFileName(name string) string {
	var builder strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(fileNameSafe, r) {
			builder.WriteRune(r)
		}
	}
	return strings.Trim(builder.String(), " .")
}
