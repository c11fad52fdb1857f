// Package cli is the shell over the vault: a closed set of commands, each
// dispatched to one VaultService operation, plus record import and export.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

// ErrRejected is returned when the vault refused an operation with a
// recoverable outcome. The reason has already been printed.
var ErrRejected = errors.New("operation rejected")

// Vault is the subset of the application service the shell drives.
type Vault interface {
	Add(ctx context.Context, in model.AddInput) (model.Result, error)
	Delete(ctx context.Context, in model.DeleteInput) (model.Result, error)
	Update(ctx context.Context, in model.UpdateInput) (model.Result, error)
	Search(ctx context.Context, pattern model.Pattern, reveal bool) ([]model.Credential, error)
}

// Command is one of AddCommand, DeleteCommand, UpdateCommand, FindCommand,
// ExportCommand or ImportCommand.
type Command interface {
	command()
}

// AddCommand stores a new secret.
type AddCommand struct {
	Input model.AddInput
}

// DeleteCommand removes one record.
type DeleteCommand struct {
	Input model.DeleteInput
}

// UpdateCommand changes part of one record.
type UpdateCommand struct {
	Input model.UpdateInput
}

// FindCommand lists the records matching Pattern.
type FindCommand struct {
	Pattern model.Pattern
	Reveal  bool
}

// ExportCommand writes every record, secrets decrypted, to Path.
type ExportCommand struct {
	Path   string
	Format Format
}

// ImportCommand adds every record found in Path.
type ImportCommand struct {
	Path   string
	Format Format
}

func (AddCommand) command()    {}
func (DeleteCommand) command() {}
func (UpdateCommand) command() {}
func (FindCommand) command()   {}
func (ExportCommand) command() {}
func (ImportCommand) command() {}

// Shell runs commands against a Vault and reports to out.
type Shell struct {
	vault Vault
	out   io.Writer
}

// NewShell creates a Shell writing its reports to out.
func NewShell(vault Vault, out io.Writer) *Shell {
	return &Shell{vault: vault, out: out}
}

// Run executes cmd. Recoverable vault outcomes are printed and reported as
// ErrRejected; anything else is returned as is.
func (s *Shell) Run(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case AddCommand:
		res, err := s.vault.Add(ctx, c.Input)
		return s.report(res, err, "Password added to wallet")
	case DeleteCommand:
		res, err := s.vault.Delete(ctx, c.Input)
		return s.report(res, err, "Password deleted from wallet")
	case UpdateCommand:
		res, err := s.vault.Update(ctx, c.Input)
		return s.report(res, err, "Password updated in wallet")
	case FindCommand:
		return s.find(ctx, c)
	case ExportCommand:
		return s.export(ctx, c)
	case ImportCommand:
		return s.importRecords(ctx, c)
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
}

func (s *Shell) report(res model.Result, err error, success string) error {
	if err != nil {
		return err
	}
	if !res.OK() {
		fmt.Fprintf(s.out, "Error: %s\n", res.Message)
		return fmt.Errorf("%s: %w", res.Status, ErrRejected)
	}
	if res.Name != "" {
		fmt.Fprintf(s.out, "%s (id %d, name %s)\n", success, res.ID, res.Name)
	} else {
		fmt.Fprintln(s.out, success)
	}
	return nil
}
