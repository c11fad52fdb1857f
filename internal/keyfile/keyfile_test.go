package keyfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	answers []string
	prompts []string
	err     error
}

func (p *scriptedPrompter) ReadSecret(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func TestLoad_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.log")
	require.NoError(t, os.WriteFile(path, []byte("  from file \n"), 0o600))

	p := &scriptedPrompter{}
	key, err := Load(path, p)

	require.NoError(t, err)
	assert.Equal(t, "from file", key)
	assert.Empty(t, p.prompts)
}

func TestLoad_PromptsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist", "key.log")

	p := &scriptedPrompter{answers: []string{"", "My Wallet钱包 Password密码"}}
	key, err := Load(path, p)

	require.NoError(t, err)
	assert.Equal(t, "My Wallet钱包 Password密码", key)
	assert.Equal(t, []string{"Enter the wallet key:", "Empty, try again:"}, p.prompts)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "My Wallet钱包 Password密码\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_GivesUpAfterRetries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.log")

	p := &scriptedPrompter{}
	_, err := Load(path, p)

	assert.ErrorIs(t, err, ErrNoPassphrase)
	assert.Len(t, p.prompts, Retries)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_PromptError(t *testing.T) {
	boom := errors.New("no tty")
	_, err := Load(filepath.Join(t.TempDir(), "key.log"), &scriptedPrompter{err: boom})
	assert.ErrorIs(t, err, boom)
}
