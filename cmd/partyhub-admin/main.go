// Command partyhub-admin manages authors and deployment keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/platform/push"
	"github.com/diagnosis/party-hub/internal/repo/sqlite"
	"github.com/diagnosis/party-hub/internal/utils"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/database"
)

const usage = `usage: partyhub-admin <command> [flags]

commands:
  add-author -name NAME   create an author and print its secret
  list-authors            list authors
  gen-vapid [-force]      write a new VAPID key pair to the configured files
  migrate                 apply database migrations
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: could not read .env:", err)
	}
	if err := run(context.Background(), config.Load(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	switch args[0] {
	case "add-author":
		fs := flag.NewFlagSet("add-author", flag.ContinueOnError)
		name := fs.String("name", "", "display name of the author")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("%w: -name is required", errUsage)
		}
		return addAuthor(ctx, cfg, strings.TrimSpace(*name), out)
	case "list-authors":
		return listAuthors(ctx, cfg, out)
	case "gen-vapid":
		fs := flag.NewFlagSet("gen-vapid", flag.ContinueOnError)
		force := fs.Bool("force", false, "overwrite existing key files")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return genVAPID(cfg.Push, *force, out)
	case "migrate":
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(out, "migrations applied to", cfg.Database.Path)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func addAuthor(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	secret, err := utils.NewSecret()
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	a := &domain.Author{ID: uuid.NewString(), Name: name, Secret: secret}
	if err := sqlite.NewAuthorRepo(db).Create(ctx, a); err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	fmt.Fprintf(out, "author %s created\nid:     %s\nsecret: %s\n", a.Name, a.ID, a.Secret)
	return nil
}

func listAuthors(ctx context.Context, cfg *config.Config, out io.Writer) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	authors, err := sqlite.NewAuthorRepo(db).List(ctx)
	if err != nil {
		return err
	}
	for _, a := range authors {
		fmt.Fprintf(out, "%s\t%s\n", a.ID, a.Name)
	}
	return nil
}

func genVAPID(cfg config.PushConfig, force bool, out io.Writer) error {
	if !force {
		for _, path := range []string{cfg.PublicKeyFile, cfg.PrivateKeyFile} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s exists, use -force to replace it", path)
			}
		}
	}
	public, private, err := push.GenerateKeys()
	if err != nil {
		return fmt.Errorf("generate keys: %w", err)
	}
	if err := os.WriteFile(cfg.PublicKeyFile, []byte(public+"\n"), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.PrivateKeyFile, []byte(private+"\n"), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s and %s\n", cfg.PublicKeyFile, cfg.PrivateKeyFile)
	return nil
}
