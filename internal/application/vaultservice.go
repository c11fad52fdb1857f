package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// VaultService is the entry point for the four vault operations. It applies
// input defaults and turns expected failures (invalid input, conflicts,
// missing records) into a model.Result. Only crypto and infrastructure
// failures are returned as errors.
type VaultService struct {
	store  driven.CredentialStore
	target string
	logger *slog.Logger
}

// NewVaultService creates a VaultService over store. target names the
// backing table for diagnostics.
func NewVaultService(store driven.CredentialStore, target string, logger *slog.Logger) *VaultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultService{store: store, target: target, logger: logger}
}

// Add stores a new secret. Blank name and site default to "Guest" and
// "Default". A collision on a pair the caller spelled out in full is a
// conflict; any other collision is resolved by suffixing the name.
func (s *VaultService) Add(ctx context.Context, in model.AddInput) (model.Result, error) {
	if isBlank(in.Secret) {
		return s.outcome("add", fmt.Errorf("empty password to add: %w", driven.ErrValidation))
	}

	explicit := !isBlank(in.Name) && !isBlank(in.Site)
	if isBlank(in.Name) {
		in.Name = model.DefaultName
	}
	if isBlank(in.Site) {
		in.Site = model.DefaultSite
	}

	cred, err := s.store.Add(ctx, in, explicit)
	if err != nil {
		return s.outcome("add", err)
	}

	s.logger.Info("credential added", "id", cred.ID, "name", cred.Name, "site", cred.Site)
	return model.Result{Status: model.StatusOK, Message: "Add password succeeded", ID: cred.ID, Name: cred.Name}, nil
}

// Delete removes one record located by ID or by name and site.
func (s *VaultService) Delete(ctx context.Context, in model.DeleteInput) (model.Result, error) {
	if err := s.store.Delete(ctx, in); err != nil {
		return s.outcome("delete", err)
	}

	s.logger.Info("credential deleted", "id", in.ID, "name", in.Name, "site", in.Site)
	return model.Result{Status: model.StatusOK, Message: "Delete password succeeded", ID: in.ID, Name: in.Name}, nil
}

// Update applies a partial update and refreshes the modified stamp.
func (s *VaultService) Update(ctx context.Context, in model.UpdateInput) (model.Result, error) {
	cred, err := s.store.Update(ctx, in)
	if err != nil {
		return s.outcome("update", err)
	}

	s.logger.Info("credential updated", "id", cred.ID, "name", cred.Name, "site", cred.Site)
	return model.Result{Status: model.StatusOK, Message: "Update password succeeded", ID: cred.ID, Name: cred.Name}, nil
}

// Search lists records matching pattern. An invalid expression is reported
// as a wrapped driven.ErrValidation error since there is no Result to carry it.
func (s *VaultService) Search(ctx context.Context, pattern model.Pattern, reveal bool) ([]model.Credential, error) {
	creds, err := s.store.Search(ctx, pattern, reveal)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("credentials searched", "matches", len(creds), "revealed", reveal)
	return creds, nil
}

// String identifies the backing table.
func (s *VaultService) String() string {
	return fmt.Sprintf("Wallet<target=%q>", s.target)
}

// outcome maps a store error onto a Result, or passes it through when it is
// not one of the recoverable kinds.
func (s *VaultService) outcome(op string, err error) (model.Result, error) {
	var res model.Result
	switch {
	case errors.Is(err, driven.ErrValidation):
		msg, _ := strings.CutSuffix(err.Error(), ": "+driven.ErrValidation.Error())
		res = model.Result{Status: model.StatusInvalid, Message: msg}
	case errors.Is(err, driven.ErrConflict):
		res = model.Result{Status: model.StatusConflict, Message: "record already exists"}
	case errors.Is(err, driven.ErrNotFound):
		res = model.Result{Status: model.StatusNotFound, Message: "no record found to " + op}
	default:
		return model.Result{}, fmt.Errorf("%s credential: %w", op, err)
	}

	s.logger.Debug("credential "+op+" rejected", "status", res.Status, "error", err)
	return res, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
