package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

// findArg matches a find filter such as "name=^Al".
var findArg = regexp.MustCompile(`^(name|site|desc)=(.+)$`)

// maskedBytes is how much ciphertext is shown in place of a hidden secret.
const maskedBytes = 10

const isoTime = "2006-01-02T15:04:05"

// ParseFindArgs builds a FindCommand from arguments of the form name=R,
// site=R and desc=R, optionally followed by true or false to choose whether
// secrets are revealed.
func ParseFindArgs(args []string) (FindCommand, error) {
	var cmd FindCommand
	for i, arg := range args {
		if i == len(args)-1 {
			switch strings.ToLower(strings.TrimSpace(arg)) {
			case "true":
				cmd.Reveal = true
				continue
			case "false":
				continue
			}
		}

		m := findArg.FindStringSubmatch(arg)
		if m == nil {
			return FindCommand{}, fmt.Errorf("unrecognized arg: %q", arg)
		}
		switch m[1] {
		case "name":
			cmd.Pattern.Name = m[2]
		case "site":
			cmd.Pattern.Site = m[2]
		case "desc":
			cmd.Pattern.Desc = m[2]
		}
	}
	return cmd, nil
}

// recordView is the display form of a credential, in table column order.
type recordView struct {
	ID       int64  `json:"id"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Name     string `json:"name"`
	Pwd      string `json:"pwd"`
	Site     string `json:"site"`
	Desc     string `json:"desc"`
}

func newRecordView(c model.Credential) recordView {
	pwd := c.Secret
	if !c.Revealed {
		sealed := c.Sealed
		if len(sealed) > maskedBytes {
			sealed = sealed[:maskedBytes]
		}
		pwd = hex.EncodeToString(sealed) + " ..."
	}
	return recordView{
		ID:       c.ID,
		Created:  c.Created.Format(isoTime),
		Modified: c.Modified.Format(isoTime),
		Name:     c.Name,
		Pwd:      pwd,
		Site:     c.Site,
		Desc:     c.Desc,
	}
}

func (s *Shell) find(ctx context.Context, c FindCommand) error {
	creds, err := s.vault.Search(ctx, c.Pattern, c.Reveal)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Fprintln(s.out, "No records found")
		return nil
	}

	for i, cred := range creds {
		data, err := json.MarshalIndent(newRecordView(cred), "", "    ")
		if err != nil {
			return fmt.Errorf("render record %d: %w", cred.ID, err)
		}
		fmt.Fprintf(s.out, "%d/%d - %s\n", i+1, len(creds), data)
	}
	return nil
}
