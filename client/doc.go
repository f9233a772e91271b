// Package client implements the Kobo store API client backing the
// activation workflow and the library tooling.
//
// It wraps the store endpoints with:
//   - Device authentication and token refresh with automatic 401 replay
//     through the client/auth/transport round tripper.
//   - Web-based activation: initiation against the ActivateOnWeb page and
//     polling of the activation check endpoint.
//   - Library sync with sync-token pagination, wishlist paging, book info
//     and content access lookups.
//   - Ebook and audiobook downloads with KDRM removal.
//
// Example:
//
//	user := &settings.User{Email: "user@example.com"}
//	cli := client.New(user)
//	if err := cli.AuthenticateDevice(ctx, ""); err != nil { ... }
//	checkURL, code, err := cli.ActivateOnWeb(ctx)
package client
