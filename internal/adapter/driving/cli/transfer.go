package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

// Format is the file encoding used by export and import.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates s, falling back to the extension of path when s is empty.
func ParseFormat(s, path string) (Format, error) {
	if s == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return FormatYAML, nil
		default:
			return FormatJSON, nil
		}
	}
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// transferRecord is the exported form of one credential with its secret in
// clear text.
type transferRecord struct {
	Name   string `json:"name" yaml:"name"`
	Site   string `json:"site" yaml:"site"`
	Desc   string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Secret string `json:"pwd" yaml:"pwd"`
}

func encodeRecords(records []transferRecord, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(records, "", "    ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func decodeRecords(data []byte, f Format) ([]transferRecord, error) {
	var records []transferRecord
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	return records, err
}

func (s *Shell) export(ctx context.Context, c ExportCommand) error {
	creds, err := s.vault.Search(ctx, model.Pattern{}, true)
	if err != nil {
		return err
	}

	records := make([]transferRecord, 0, len(creds))
	for _, cred := range creds {
		records = append(records, transferRecord{Name: cred.Name, Site: cred.Site, Desc: cred.Desc, Secret: cred.Secret})
	}

	data, err := encodeRecords(records, c.Format)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(c.Path, data, 0o600); err != nil {
		return fmt.Errorf("write export %s: %w", c.Path, err)
	}

	fmt.Fprintf(s.out, "Exported %d records to %s\n", len(records), c.Path)
	return nil
}

// importRecords adds every record through the vault, so an existing
// (name, site) pair is reported as a conflict and skipped.
func (s *Shell) importRecords(ctx context.Context, c ImportCommand) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read import %s: %w", c.Path, err)
	}

	records, err := decodeRecords(data, c.Format)
	if err != nil {
		return fmt.Errorf("decode %s: %w", c.Path, err)
	}

	var added, skipped int
	for _, rec := range records {
		res, err := s.vault.Add(ctx, model.AddInput{Secret: rec.Secret, Name: rec.Name, Site: rec.Site, Desc: rec.Desc})
		if err != nil {
			return err
		}
		if !res.OK() {
			skipped++
			fmt.Fprintf(s.out, "Skipped %s@%s: %s\n", rec.Name, rec.Site, res.Message)
			continue
		}
		added++
	}

	fmt.Fprintf(s.out, "Imported %d records, skipped %d\n", added, skipped)
	if skipped > 0 && added == 0 && len(records) > 0 {
		return fmt.Errorf("nothing imported from %s: %w", c.Path, ErrRejected)
	}
	return nil
}
