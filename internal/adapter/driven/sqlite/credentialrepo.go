package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

const credentialColumns = `id, created, modified, name, pwd, site, "desc"`

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Secrets are sealed through the SecretCipher before write and opened after read.
type CredentialRepo struct {
	db     *DB
	cipher driven.SecretCipher
	now    func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo backed by db that seals
// secrets with c.
func NewCredentialRepo(db *DB, c driven.SecretCipher) *CredentialRepo {
	return &CredentialRepo{db: db, cipher: c, now: time.Now}
}

// WithClock replaces the time source used for created and modified stamps.
func (r *CredentialRepo) WithClock(now func() time.Time) *CredentialRepo {
	r.now = now
	return r
}

// Add inserts a new credential. When explicit is false and the (name, site)
// pair is taken, the name is given the next free ~N suffix. The uniqueness
// check and the insert share one transaction.
func (r *CredentialRepo) Add(ctx context.Context, in model.AddInput, explicit bool) (model.Credential, error) {
	if isBlank(in.Secret) {
		return model.Credential{}, fmt.Errorf("empty password to add: %w", driven.ErrValidation)
	}
	if isBlank(in.Name) || isBlank(in.Site) {
		return model.Credential{}, fmt.Errorf("name and site are required: %w", driven.ErrValidation)
	}

	sealed, err := r.cipher.Encrypt(in.Secret)
	if err != nil {
		return model.Credential{}, fmt.Errorf("encrypt secret: %w", err)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	taken, err := namesAtSite(ctx, tx, in.Site)
	if err != nil {
		return model.Credential{}, err
	}

	name := in.Name
	if _, exists := taken[name]; exists && explicit {
		return model.Credential{}, fmt.Errorf("add %s@%s: %w", in.Name, in.Site, driven.ErrConflict)
	}
	name = model.ResolveName(name, taken)

	now := r.now().Unix()
	const query = `INSERT INTO credentials (created, modified, name, pwd, site, "desc") VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query, now, now, name, sealed, in.Site, in.Desc)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Credential{}, fmt.Errorf("add %s@%s: %w", name, in.Site, driven.ErrConflict)
		}
		return model.Credential{}, fmt.Errorf("add %s@%s: %w", name, in.Site, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Credential{}, fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, fmt.Errorf("commit add %s@%s: %w", name, in.Site, err)
	}

	return model.Credential{
		ID:       id,
		Created:  time.Unix(now, 0),
		Modified: time.Unix(now, 0),
		Name:     name,
		Site:     in.Site,
		Desc:     in.Desc,
		Sealed:   sealed,
	}, nil
}

// Delete removes the record identified by ID, or by name and site when ID
// is not positive.
func (r *CredentialRepo) Delete(ctx context.Context, in model.DeleteInput) error {
	var (
		res sql.Result
		err error
	)
	switch {
	case in.ID > 0:
		res, err = r.db.Writer.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, in.ID)
	case isBlank(in.Name):
		return fmt.Errorf("empty name to delete: %w", driven.ErrValidation)
	case isBlank(in.Site):
		return fmt.Errorf("empty site to delete: %w", driven.ErrValidation)
	default:
		res, err = r.db.Writer.ExecContext(ctx, `DELETE FROM credentials WHERE name = ? AND site = ?`, in.Name, in.Site)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", describe(in.ID, in.Name, in.Site), err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete %s: %w", describe(in.ID, in.Name, in.Site), driven.ErrNotFound)
	}
	return nil
}

// Update applies the non-blank fields of in to one record and always
// refreshes its modified stamp. Name and Site are only rewritten when the
// record is located by ID. The new pair is not checked against other rows
// beyond the table's own UNIQUE constraint.
func (r *CredentialRepo) Update(ctx context.Context, in model.UpdateInput) (model.Credential, error) {
	if err := validateUpdate(in); err != nil {
		return model.Credential{}, err
	}

	var sets []string
	var args []any
	if !isBlank(in.Secret) {
		sealed, err := r.cipher.Encrypt(in.Secret)
		if err != nil {
			return model.Credential{}, fmt.Errorf("encrypt secret: %w", err)
		}
		sets = append(sets, "pwd = ?")
		args = append(args, sealed)
	}
	if !isBlank(in.Desc) {
		sets = append(sets, `"desc" = ?`)
		args = append(args, in.Desc)
	}
	if in.ID > 0 {
		if !isBlank(in.Name) {
			sets = append(sets, "name = ?")
			args = append(args, in.Name)
		}
		if !isBlank(in.Site) {
			sets = append(sets, "site = ?")
			args = append(args, in.Site)
		}
	}
	sets = append(sets, "modified = ?")
	args = append(args, r.now().Unix())

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	id := in.ID
	if id <= 0 {
		const lookup = `SELECT id FROM credentials WHERE name = ? AND site = ?`
		err := tx.QueryRowContext(ctx, lookup, in.Name, in.Site).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Credential{}, fmt.Errorf("update %s: %w", describe(0, in.Name, in.Site), driven.ErrNotFound)
		}
		if err != nil {
			return model.Credential{}, fmt.Errorf("look up %s: %w", describe(0, in.Name, in.Site), err)
		}
	}

	query := `UPDATE credentials SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := tx.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Credential{}, fmt.Errorf("update record %d: %w", id, driven.ErrConflict)
		}
		return model.Credential{}, fmt.Errorf("update record %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return model.Credential{}, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return model.Credential{}, fmt.Errorf("update record %d: %w", id, driven.ErrNotFound)
	}

	cred, err := scanCredential(tx.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id))
	if err != nil {
		return model.Credential{}, fmt.Errorf("reload record %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, fmt.Errorf("commit update %d: %w", id, err)
	}
	return *cred, nil
}

// Search returns the records whose fields match every expression in pattern,
// ordered by ID. Secrets are decrypted only when reveal is true.
func (r *CredentialRepo) Search(ctx context.Context, pattern model.Pattern, reveal bool) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials`
	var args []any
	if !pattern.IsZero() {
		where, whereArgs, err := patternClause(pattern)
		if err != nil {
			return nil, err
		}
		query += ` WHERE ` + where
		args = whereArgs
	}
	query += ` ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search credentials: %w", err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	if reveal {
		for i := range creds {
			secret, err := r.cipher.Decrypt(creds[i].Sealed)
			if err != nil {
				return nil, fmt.Errorf("decrypt record %d: %w", creds[i].ID, err)
			}
			creds[i].Secret = secret
			creds[i].Revealed = true
		}
	}

	return creds, nil
}

// patternClause builds the AND-joined REGEXP condition for the non-empty
// fields of pattern.
func patternClause(pattern model.Pattern) (string, []any, error) {
	var conds []string
	var args []any
	for _, f := range []struct{ column, expr string }{
		{"name", pattern.Name},
		{"site", pattern.Site},
		{`"desc"`, pattern.Desc},
	} {
		if f.expr == "" {
			continue
		}
		if _, err := compilePattern(f.expr); err != nil {
			return "", nil, fmt.Errorf("pattern for %s: %v: %w", f.column, err, driven.ErrValidation)
		}
		conds = append(conds, f.column+" REGEXP ?")
		args = append(args, f.expr)
	}
	return strings.Join(conds, " AND "), args, nil
}

func validateUpdate(in model.UpdateInput) error {
	if in.ID <= 0 {
		if isBlank(in.Name) {
			return fmt.Errorf("empty name to update: %w", driven.ErrValidation)
		}
		if isBlank(in.Site) {
			return fmt.Errorf("empty site to update: %w", driven.ErrValidation)
		}
		if isBlank(in.Secret) && isBlank(in.Desc) {
			return fmt.Errorf("nothing to update: %w", driven.ErrValidation)
		}
		return nil
	}
	if isBlank(in.Name) && isBlank(in.Site) && isBlank(in.Secret) && isBlank(in.Desc) {
		return fmt.Errorf("nothing to update: %w", driven.ErrValidation)
	}
	return nil
}

// namesAtSite returns the set of names already used under site.
func namesAtSite(ctx context.Context, tx *sql.Tx, site string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM credentials WHERE site = ?`, site)
	if err != nil {
		return nil, fmt.Errorf("list names at %s: %w", site, err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		taken[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return taken, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var created, modified int64
	if err := s.Scan(&cred.ID, &created, &modified, &cred.Name, &cred.Sealed, &cred.Site, &cred.Desc); err != nil {
		return nil, err
	}
	cred.Created = time.Unix(created, 0)
	cred.Modified = time.Unix(modified, 0)
	return &cred, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

func describe(id int64, name, site string) string {
	if id > 0 {
		return fmt.Sprintf("record %d", id)
	}
	return fmt.Sprintf("%s@%s", name, site)
}
