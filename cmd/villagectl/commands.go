package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/svc/contentsvc"
	"github.com/apiarian/village/internal/util/encoding"
)

var (
	ErrUsage            = errors.New("usage")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

const usage = `usage: villagectl <command> [args]

commands:
  create-user                 register a user (prompts for details)
  reset-password              force a new password (prompts for details)
  set-image <user> <file>     store a profile image and its thumbnail
  update-thumbnail <user>     regenerate a user's thumbnail
  list-users                  list registered users
  thread <post-id>            print the thread rooted at a post`

// readPassword reads without echo from a terminal.
//
//nolint:gochecknoglobals
var readPassword = term.ReadPassword

type cli struct {
	svc      *contentsvc.ContentService
	in       *bufio.Reader
	out      io.Writer
	terminal bool
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}

	command, rest := args[0], args[1:]

	switch {
	case command == "create-user" && len(rest) == 0:
		return c.createUser(ctx)
	case command == "reset-password" && len(rest) == 0:
		return c.resetPassword(ctx)
	case command == "set-image" && len(rest) == 2:
		return c.setImage(ctx, domain.Username(rest[0]), rest[1])
	case command == "update-thumbnail" && len(rest) == 1:
		return c.updateThumbnail(ctx, domain.Username(rest[0]))
	case command == "list-users" && len(rest) == 0:
		return c.listUsers(ctx)
	case command == "thread" && len(rest) == 1:
		return c.thread(ctx, domain.PostID(encoding.NormalizeCrockfordB32LC(rest[0])))
	default:
		return fmt.Errorf("%w: %s\n%s", ErrUsage, strings.Join(args, " "), usage)
	}
}

func (c *cli) createUser(ctx context.Context) error {
	username, err := c.prompt("username")
	if err != nil {
		return err
	}

	displayName, err := c.prompt("display name")
	if err != nil {
		return err
	}

	password, err := c.newPassword()
	if err != nil {
		return err
	}

	u, err := c.svc.RegisterUser(ctx, domain.Username(username), displayName, password)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	fmt.Fprintf(c.out, "created %s\n", u.Username)

	return nil
}

func (c *cli) resetPassword(ctx context.Context) error {
	username, err := c.prompt("username")
	if err != nil {
		return err
	}

	if _, err := c.svc.LoadUser(ctx, domain.Username(username)); err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	password, err := c.newPassword()
	if err != nil {
		return err
	}

	if err := c.svc.ResetPassword(ctx, domain.Username(username), password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(c.out, "password reset for %s\n", username)

	return nil
}

func (c *cli) setImage(ctx context.Context, username domain.Username, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	u, err := c.svc.SetUserImage(ctx, username, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("set user image: %w", err)
	}

	fmt.Fprintln(c.out, *u.ImageFilename)
	fmt.Fprintln(c.out, *u.ImageThumbnail)

	return nil
}

func (c *cli) updateThumbnail(ctx context.Context, username domain.Username) error {
	filename, err := c.svc.RegenerateUserThumbnail(ctx, username)
	if err != nil {
		return fmt.Errorf("regenerate thumbnail: %w", err)
	}

	fmt.Fprintln(c.out, filename)

	return nil
}

func (c *cli) listUsers(ctx context.Context) error {
	users, err := c.svc.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tDISPLAY NAME\tNEW PASSWORD REQUIRED")

	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%t\n", u.Username, u.DisplayName, u.NewPasswordRequired)
	}

	//nolint:wrapcheck
	return w.Flush()
}

func (c *cli) thread(ctx context.Context, root domain.PostID) error {
	posts, err := c.svc.LoadThread(ctx, root)
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Timestamp.Format(time.RFC3339), p.Author, p.Title)
	}

	//nolint:wrapcheck
	return w.Flush()
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}

	return strings.TrimSpace(line), nil
}

func (c *cli) secret(label string) (string, error) {
	if !c.terminal {
		return c.prompt(label)
	}

	fmt.Fprintf(c.out, "%s: ", label)

	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.out)

	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}

	return string(secret), nil
}

func (c *cli) newPassword() (string, error) {
	password, err := c.secret("password")
	if err != nil {
		return "", err
	}

	confirm, err := c.secret("confirm password")
	if err != nil {
		return "", err
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}

	return password, nil
}
