package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/manuscripts/internal/config"
	"github.com/mrlokans/manuscripts/internal/database"
	"github.com/mrlokans/manuscripts/internal/database/users"
)

// CreateAdminCommand creates the admin user that owns imported publications.
type CreateAdminCommand struct {
	Username     string
	Email        string
	DatabasePath string

	Out io.Writer
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{Out: os.Stdout}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Admin username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Admin email (defaults to <username>@localhost)")
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -username NAME [-email EMAIL]\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("username is required")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := users.NewRepository(db.DB).CreateAdmin(cmd.Username, cmd.Email)
	if errors.Is(err, users.ErrUserExists) {
		fmt.Fprintf(cmd.Out, "User %q already exists\n", cmd.Username)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "Created admin %s <%s> (id %d)\n", user.Username, user.Email, user.ID)
	return nil
}
