package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/client/activation"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

type userAddCmd struct {
	rt       *runtime
	Server   string        `long:"server" description:"activate through a running kobodl server instead of talking to Kobo directly"`
	Email    string        `short:"e" long:"email" description:"account email, required with --server"`
	Interval time.Duration `long:"interval" default:"5s" description:"activation poll interval"`
	Attempts int           `long:"attempts" description:"cap on activation polls, 0 means unlimited"`
}

// Execute runs the web activation. Without --server it drives the Kobo
// activation directly and persists the user locally; with --server it
// runs the activation contracts of a remote kobodl server, which
// persists the user itself.
func (c *userAddCmd) Execute(args []string) error {
	ctx := context.Background()
	if c.Server != "" {
		return c.remote(ctx)
	}
	service, err := c.rt.settings(ctx)
	if err != nil {
		return err
	}
	user := &settings.User{Email: c.Email}
	err = client.New(user).Login(ctx, c.Interval, func(activationURL, code string) {
		fmt.Fprintf(c.rt.output, "Open %v and enter the code %v\n", activationURL, code)
	})
	if err != nil {
		return err
	}
	service.Users.Add(user)
	if err = service.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.rt.output, "Login success. Try to list your books with `kobodl book list`")
	return nil
}

func (c *userAddCmd) remote(ctx context.Context) error {
	if c.Email == "" {
		return fmt.Errorf("--email is required with --server")
	}
	options := []activation.Option{activation.WithInterval(c.Interval)}
	if c.Attempts > 0 {
		options = append(options, activation.WithMaxAttempts(c.Attempts))
	}
	controller := activation.New(c.Server+"/user", c.Server+"/user/check-activation", options...)
	err := controller.Activate(ctx, c.Email, func(challenge *schema.ActivationChallenge) {
		fmt.Fprintf(c.rt.output, "Open %v and enter the code %v\n", challenge.ActivationURL, challenge.ActivationCode)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.rt.output, "Activation complete; the user was saved on %v\n", c.Server)
	return nil
}

type userListCmd struct {
	rt *runtime
}

func (c *userListCmd) Execute(args []string) error {
	ctx := context.Background()
	service, err := c.rt.settings(ctx)
	if err != nil {
		return err
	}
	users := service.Users.All()
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })

	writer := tabwriter.NewWriter(c.rt.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Email\tUserKey\tDeviceId")
	for _, user := range users {
		fmt.Fprintf(writer, "%v\t%v\t%v\n", user.Email, user.UserKey, user.DeviceId)
	}
	return writer.Flush()
}

type userRemoveCmd struct {
	rt   *runtime
	Args struct {
		Identifier string `positional-arg-name:"identifier" required:"yes"`
	} `positional-args:"yes"`
}

func (c *userRemoveCmd) Execute(args []string) error {
	ctx := context.Background()
	service, err := c.rt.settings(ctx)
	if err != nil {
		return err
	}
	removed := service.Users.Remove(c.Args.Identifier)
	if removed == nil {
		return fmt.Errorf("no user with email, key, or device id that matches %q", c.Args.Identifier)
	}
	if err = service.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.rt.output, "Removed %v\n", removed.Email)
	return nil
}
