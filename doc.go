// Package kobodl provides high-level helpers for working with Kobo accounts
// and libraries without a physical e-reader.
//
// The package glues the store client, the settings store and the web server
// into a small set of entry points:
//  1. NewClient – a store API client bound to one activated user,
//  2. NewBooks – library listing and download operations across users,
//  3. NewServer – the web UI driving the two-phase device activation,
//  4. Login – the terminal variant of the activation workflow.
//
// Activation is two-phase: the workflow first obtains an activation code
// the user enters at kobo.com/activate, then polls the Kobo activation
// endpoint until the account got linked and finishes device
// authentication with the returned user key.
//
// Example:
//
//	cfg, _ := kobodl.NewSettings(ctx, "")
//	user := &settings.User{}
//	_ = kobodl.Login(ctx, user, 5*time.Second, func(activationURL, code string) {
//		fmt.Printf("visit %v and enter %v\n", activationURL, code)
//	})
//	cfg.Users.Add(user)
//	_ = cfg.Save(ctx)
package kobodl
