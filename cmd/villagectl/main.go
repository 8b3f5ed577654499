package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/apiarian/village/internal/infra/config"
	context_ "github.com/apiarian/village/internal/infra/context"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/blob"
	"github.com/apiarian/village/internal/repo/post"
	"github.com/apiarian/village/internal/repo/upload"
	"github.com/apiarian/village/internal/repo/user"
	"github.com/apiarian/village/internal/svc/contentsvc"
	"github.com/apiarian/village/internal/svc/imagesvc"
)

const (
	appName = "village"
	svcName = "villagectl"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig                `envPrefix:"LOG_"`
	Storage blob.FileSystemBlobRepositoryConfig `envPrefix:"STORAGE_"`
	Image   imagesvc.Config                     `envPrefix:"IMAGE_"`
}

func main() {
	var (
		cfg Config
		ctx = context_.WithActor(context_.WithNewTraceID(context.Background()), svcName)

		configPrefix = strings.ToUpper(appName)
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, args []string) (err error) {
	log := logging.GetLogger("cmd.villagectl")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "command failed", "args", args, "error", err)
		} else {
			log.DebugContext(ctx, "command done", "args", args)
		}
	}()

	images, err := imagesvc.NewThumbnailService(cfg.Image)
	if err != nil {
		return fmt.Errorf("new image service: %w", err)
	}

	blobs := blob.FileSystemBlobRepositoryFactory(cfg.Storage)

	svc, err := contentsvc.NewContentService(
		ctx,
		user.FileSystemUserRepositoryFactory(blobs),
		post.FileSystemPostRepositoryFactory(blobs),
		upload.FileSystemUploadRepositoryFactory(blobs),
		images,
	)
	if err != nil {
		return fmt.Errorf("new content service: %w", err)
	}

	c := &cli{
		svc:      svc,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		terminal: term.IsTerminal(int(os.Stdin.Fd())),
	}

	return c.dispatch(ctx, args)
}
