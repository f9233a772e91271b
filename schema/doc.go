// Package schema defines the wire payloads exchanged during the Kobo
// device-activation workflow and the store API calls that follow it:
//   - the begin-activation / check-activation contracts served to the
//     activation controller,
//   - the device authentication and token refresh payloads,
//   - library sync entitlements, wishlist pages and content access
//     descriptors used to list and download books.
//
// Field names follow the backend JSON verbatim; snake_case on the
// activation contracts, PascalCase on the Kobo store API.
package schema
