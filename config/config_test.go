package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Valid())
}

func TestValidRejectsZeroTimeToProduceBlock(t *testing.T) {
	c := DefaultConfig()
	c.TimeToProduceBlockMillis = 0
	require.ErrorIs(t, c.Valid(), ErrTimeToProduceBlockTooLow)
}

func TestValidRejectsZeroThreadLoadWindowSize(t *testing.T) {
	c := DefaultConfig()
	c.ThreadLoadWindowSize = 0
	require.ErrorIs(t, c.Valid(), ErrThreadLoadWindowTooSmall)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"global": {
			"time_to_produce_block_millis": 500,
			"thread_load_threshold": 7000,
			"block_keeper_epoch_code_hash": "` + stringOf32Zeros() + `"
		},
		"network": {"attestation_resend_timeout_millis": 1500},
		"local": {"parallelization_level": 8}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(500), c.TimeToProduceBlockMillis)
	require.Equal(t, uint64(7000), c.ThreadLoadThreshold)
	require.Equal(t, 8, c.ParallelizationLevel)
	// Fields absent from the file keep their defaults.
	require.Equal(t, DefaultConfig().SaveStateFrequency, c.SaveStateFrequency)
}

func TestLoadRejectsMalformedHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"global": {"block_keeper_epoch_code_hash": "not-hex"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrParametersInvalid)
}

func stringOf32Zeros() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
