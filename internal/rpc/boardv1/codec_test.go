package boardv1

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	data, err := codec.Marshal(&BoardUpdate{Kind: UpdateKindSound})
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"sound"}`, string(data))

	var update BoardUpdate
	require.NoError(t, codec.Unmarshal(data, &update))
	require.Equal(t, UpdateKindSound, update.Kind)

	var empty SetOrderStatusResponse
	require.NoError(t, codec.Unmarshal(nil, &empty))
	require.Error(t, codec.Unmarshal([]byte("{"), &update))
}
