package raw_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groupio/groupio/codec/raw"
)

func TestCodec(t *testing.T) {
	codec := raw.New()
	msg := []byte("payload")

	data, err := codec.Marshal(msg)
	require.NoError(t, err)
	require.Equal(t, msg, data)

	got, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}
