package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/viant/kobodl/book"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

type bookListCmd struct {
	rt   *runtime
	User string `short:"u" long:"user" description:"limit the list to a single user, by email or user key"`
	Read bool   `long:"read" description:"include books marked as read"`
}

func decorators(row *schema.Book) string {
	suffix := ""
	if row.Audiobook {
		suffix += " (audiobook)"
	}
	if row.Archived {
		suffix += " (archived)"
	}
	return suffix
}

func (c *bookListCmd) Execute(args []string) error {
	ctx := context.Background()
	users, err := c.users(ctx, c.User)
	if err != nil {
		return err
	}
	rows, err := book.New().List(ctx, users, c.Read)
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(c.rt.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Title\tAuthor\tRevisionId\tOwner")
	for _, row := range rows {
		fmt.Fprintf(writer, "%v\t%v\t%v\t%v\n", row.Title+decorators(row), row.Author, row.RevisionId, row.Owner)
	}
	return writer.Flush()
}

func (c *bookListCmd) users(ctx context.Context, identifier string) ([]*settings.User, error) {
	service, err := c.rt.settings(ctx)
	if err != nil {
		return nil, err
	}
	if identifier == "" {
		return service.Users.All(), nil
	}
	user := service.Users.Lookup(identifier)
	if user == nil {
		return nil, fmt.Errorf("could not find user with name or id %v", identifier)
	}
	return []*settings.User{user}, nil
}

type bookGetCmd struct {
	rt        *runtime
	User      string `short:"u" long:"user" description:"required when multiple accounts exist; email or user key"`
	OutputDir string `short:"o" long:"output-dir" default:"kobo_downloads" description:"download directory"`
	GetAll    bool   `short:"a" long:"get-all" description:"download every book in the library"`
	Format    string `short:"f" long:"format-str" default:"{Author} - {Title} {ShortRevisionId}" description:"output file name format"`
	Args      struct {
		ProductIds []string `positional-arg-name:"product-id"`
	} `positional-args:"yes"`
}

func (c *bookGetCmd) Execute(args []string) error {
	ctx := context.Background()
	service, err := c.rt.settings(ctx)
	if err != nil {
		return err
	}
	users := service.Users.All()
	if len(users) == 0 {
		return fmt.Errorf("no users found, did you `kobodl user add`?")
	}
	var user *settings.User
	if c.User == "" {
		if len(users) > 1 {
			return fmt.Errorf("must provide --user when more than 1 user exists")
		}
		user = users[0]
	} else if user = service.Users.Lookup(c.User); user == nil {
		return fmt.Errorf("could not find user with name or id %v", c.User)
	}
	if c.GetAll && len(c.Args.ProductIds) > 0 {
		return fmt.Errorf("cannot pass product ids when --get-all is used, use one or the other")
	}
	if !c.GetAll && len(c.Args.ProductIds) == 0 {
		return fmt.Errorf("must pass at least one product id, or use --get-all")
	}

	books := book.New(book.WithFileNameFormat(c.Format))
	if c.GetAll {
		paths, err := books.GetAll(ctx, user, c.OutputDir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(c.rt.output, path)
		}
		return nil
	}
	for _, productId := range c.Args.ProductIds {
		path, err := books.Get(ctx, user, c.OutputDir, productId)
		if err != nil {
			return err
		}
		service.Downloads.Mark(user.UserId, productId)
		fmt.Fprintln(c.rt.output, path)
	}
	return service.Save(ctx)
}

type wishListCmd struct {
	rt   *runtime
	User string `short:"u" long:"user" description:"limit the list to a single user, by email or user key"`
}

func (c *wishListCmd) Execute(args []string) error {
	ctx := context.Background()
	lister := &bookListCmd{rt: c.rt}
	users, err := lister.users(ctx, c.User)
	if err != nil {
		return err
	}
	rows, err := book.New().WishList(ctx, users)
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(c.rt.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Title\tAuthor\tPrice\tOwner")
	for _, row := range rows {
		fmt.Fprintf(writer, "%v\t%v\t%v\t%v\n", row.Title, row.Author, row.Price, row.Owner)
	}
	return writer.Flush()
}
