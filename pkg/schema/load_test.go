package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

func TestLoad(t *testing.T) {
	keys := generateKeys(t, 1)

	config := `
program_id: ` + solana.Base58(keys[0]) + `
shapes:
  - name: Vault
    tagged: true
    fields:
      - name: authority
        type: pubkey
      - name: balance
        type: u64
instructions:
  - name: transfer
    accounts:
      - name: authority
        role: signer
      - name: vault
        role: account
        shape: Vault
        writable: true
        has_one: [authority]
        seeds: ["vault"]
        bump: 254
      - name: destination
        role: mut
    args:
      - name: amount
        type: u64
  - name: close
    accounts:
      - name: authority
        role: signer
      - name: vault
        role: mut
        owner: ` + solana.Base58(keys[0]) + `
    args: []
`

	path := filepath.Join(t.TempDir(), "program.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	prog, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, keys[0], prog.ID())
	assert.Equal(t, DispatchPerInstruction, prog.Mode())
	require.Len(t, prog.Instructions(), 2)

	transfer := prog.Instructions()[0]
	assert.Equal(t, "transfer", transfer.Name())
	require.Len(t, transfer.Accounts(), 3)

	authority := transfer.Accounts()[0]
	assert.Equal(t, RoleSigner, authority.Role)
	assert.True(t, authority.Constraints.Signer)

	vault := transfer.Accounts()[1]
	assert.Equal(t, RoleAccount, vault.Role)
	require.NotNil(t, vault.Shape)
	assert.Equal(t, "Vault", vault.Shape.Name())
	assert.True(t, vault.Constraints.Writable)
	assert.Equal(t, []string{"authority"}, vault.Constraints.HasOne)
	require.Len(t, vault.Constraints.Seeds, 1)
	assert.Equal(t, []byte("vault"), vault.Constraints.Seeds[0])
	require.NotNil(t, vault.Constraints.Bump)
	assert.EqualValues(t, 254, *vault.Constraints.Bump)

	closeIns := prog.Instructions()[1]
	assert.Equal(t, keys[0], closeIns.Accounts()[1].Constraints.Owner)
	assert.Equal(t, 0, closeIns.Args().Size())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	badID := filepath.Join(dir, "bad_id.yaml")
	require.NoError(t, os.WriteFile(badID, []byte(`
program_id: not-a-key
instructions:
  - name: x
`), 0o644))
	_, err := Load(badID)
	assert.Error(t, err)

	badRole := filepath.Join(dir, "bad_role.yaml")
	require.NoError(t, os.WriteFile(badRole, []byte(`
program_id: 11111111111111111111111111111111
instructions:
  - name: x
    accounts:
      - name: a
        role: sideways
`), 0o644))
	_, err = Load(badRole)
	assert.Error(t, err)

	badMode := filepath.Join(dir, "bad_mode.yaml")
	require.NoError(t, os.WriteFile(badMode, []byte(`
program_id: 11111111111111111111111111111111
mode: broadcast
instructions:
  - name: x
`), 0o644))
	_, err = Load(badMode)
	assert.Error(t, err)
}
