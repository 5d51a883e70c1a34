package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

const (
	campaignX = "0xc100000000000000000000000000000000000000000000000000000000000001"
	holderX   = "0x1000000000000000000000000000000000000001"
	holderY   = "0x2000000000000000000000000000000000000002"
	tokenX    = "0xa0000000000000000000000000000000000000aa"
)

func snapshotJSON(epoch uint32, amountX, amountY string) []byte {
	return []byte(`{
  "lastUpdateEpoch": ` + jsonNumber(epoch) + `,
  "updateTimestamp": 0,
  "merklRoot": "",
  "rewards": {
    "` + campaignX + `": {
      "amm": 0,
      "pool": "0x00000000000000000000000000000000000000a1",
      "token": "` + tokenX + `",
      "tokenSymbol": "agEUR",
      "tokenDecimals": 18,
      "lastUpdateEpoch": ` + jsonNumber(epoch) + `,
      "holders": {
        "` + holderX + `": {"amount": "` + amountX + `", "breakdown": {"lp": "` + amountX + `"}},
        "` + holderY + `": {"amount": "` + amountY + `", "breakdown": {"lp": "` + amountY + `"}}
      }
    }
  }
}`)
}

func jsonNumber(v uint32) string {
	b, _ := json.Marshal(v)
	return string(b)
}

type CmdTestSuite struct {
	suite.Suite
	dir     string
	oldFile string
	newFile string
}

func (suite *CmdTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.oldFile = filepath.Join(suite.dir, "old.json")
	suite.newFile = filepath.Join(suite.dir, "new.json")
	suite.Require().NoError(os.WriteFile(suite.oldFile, snapshotJSON(100, "1000", "500"), 0o600))
	suite.Require().NoError(os.WriteFile(suite.newFile, snapshotJSON(101, "900", "800"), 0o600))
}

func (suite *CmdTestSuite) execute(args ...string) (string, error) {
	root := RootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (suite *CmdTestSuite) Test_TreeRoot() {
	out, err := suite.execute("tree", "root", suite.oldFile, "-o", "json")
	suite.Require().NoError(err)

	var res treeRootOutput
	suite.Require().NoError(json.Unmarshal([]byte(out), &res))
	suite.Equal(uint32(100), res.Epoch)
	suite.Equal(2, res.Leaves)
	suite.Len(res.Root, 66)

	text, err := suite.execute("tree", "root", suite.oldFile)
	suite.Require().NoError(err)
	suite.Contains(text, res.Root)
}

func (suite *CmdTestSuite) Test_TreeProof() {
	out, err := suite.execute("tree", "proof", suite.newFile, holderY, tokenX, "-o", "yaml")
	suite.Require().NoError(err)

	var res treeProofOutput
	suite.Require().NoError(yaml.Unmarshal([]byte(out), &res))
	suite.True(res.Valid)
	suite.Equal("800", res.Amount)
	suite.NotEmpty(res.Proof)
}

func (suite *CmdTestSuite) Test_TreeDiff() {
	out, err := suite.execute("tree", "diff", suite.oldFile, suite.newFile, "-o", "json")
	suite.Require().NoError(err)

	var res treeDiffOutput
	suite.Require().NoError(json.Unmarshal([]byte(out), &res))
	suite.Require().Len(res.Campaigns, 1)
	suite.Equal("200", res.Campaigns[0].Diff)
	suite.Require().Len(res.NegativeDiffs, 1)
	suite.Equal(holderX, res.NegativeDiffs[0].Recipient)
	suite.Equal("-100", res.NegativeDiffs[0].Amount)
}

func (suite *CmdTestSuite) Test_TreeMissingFile() {
	_, err := suite.execute("tree", "root", filepath.Join(suite.dir, "absent.json"))
	suite.Error(err)
}

func (suite *CmdTestSuite) Test_ConfigInit() {
	path := filepath.Join(suite.dir, "conf", "config.toml")
	out, err := suite.execute("config", "init", "--config", path)
	suite.Require().NoError(err)
	suite.Contains(out, "config written to")
	suite.FileExists(path)

	out, err = suite.execute("config", "init", "--config", path)
	suite.Require().NoError(err)
	suite.Contains(out, "already exists")
}

func (suite *CmdTestSuite) Test_KeyImportAndList() {
	path := filepath.Join(suite.dir, "config.toml")
	_, err := suite.execute("config", "init", "--config", path)
	suite.Require().NoError(err)
	keystoreDir := filepath.Join(suite.dir, "keystore")
	suite.T().Setenv("DISPUTE_DISPUTER_KEYSTORE_DIR", keystoreDir)
	suite.T().Setenv("DISPUTE_DISPUTER_PASSWORD", "s3cret")

	key, err := crypto.GenerateKey()
	suite.Require().NoError(err)
	keyFile := filepath.Join(suite.dir, "key.hex")
	suite.Require().NoError(os.WriteFile(keyFile, []byte(hex.EncodeToString(crypto.FromECDSA(key))+"\n"), 0o600))
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	out, err := suite.execute("key", "import", "--config", path, "--private-key-file", keyFile)
	suite.Require().NoError(err)
	suite.Contains(out, "imported "+address)

	out, err = suite.execute("key", "list", "--config", path, "-o", "json")
	suite.Require().NoError(err)
	var res keyListOutput
	suite.Require().NoError(json.Unmarshal([]byte(out), &res))
	suite.Equal(keystoreDir, res.Keystore)
	suite.Equal([]string{address}, res.Accounts)

	_, err = suite.execute("key", "import", "--config", path, "--private-key-file", keyFile)
	suite.Error(err)
}

func (suite *CmdTestSuite) Test_KeyImportRejectsBadKey() {
	path := filepath.Join(suite.dir, "config.toml")
	_, err := suite.execute("config", "init", "--config", path)
	suite.Require().NoError(err)
	suite.T().Setenv("DISPUTE_DISPUTER_KEYSTORE_DIR", filepath.Join(suite.dir, "keystore"))

	keyFile := filepath.Join(suite.dir, "key.hex")
	suite.Require().NoError(os.WriteFile(keyFile, []byte("not-a-key"), 0o600))
	_, err = suite.execute("key", "import", "--config", path, "--private-key-file", keyFile, "--password", "pw")
	suite.ErrorContains(err, "invalid private key")
}

func TestCmdTestSuite(t *testing.T) {
	suite.Run(t, new(CmdTestSuite))
}

func TestWatchRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		err := watch(context.Background(), nil, interval)
		assert.ErrorContains(t, err, "must be positive")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := render(&bytes.Buffer{}, "xml", struct{}{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
