package sigma

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamthegreatdestroyer/sigma-compress/compress"
	"github.com/iamthegreatdestroyer/sigma-compress/engine"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

func TestNewDefault(t *testing.T) {
	comp, err := NewDefault()
	require.NoError(t, err)
	require.NotNil(t, comp)
	require.Equal(t, engine.DefaultConfig(), comp.Config())
}

func TestNew_WithOptions(t *testing.T) {
	comp, err := New(
		engine.WithWindowSize(8*1024),
		engine.WithSemanticDedupe(true),
		engine.WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)

	cfg := comp.Config()
	require.Equal(t, 8*1024, cfg.WindowSize)
	require.True(t, cfg.EnableSemanticDedupe)
	require.NotNil(t, cfg.Oracle)
}

func TestNew_InvalidOption(t *testing.T) {
	comp, err := New(engine.WithWindowSize(1))
	require.Nil(t, comp)
	require.ErrorIs(t, err, errs.ErrInvalidWindowSize)
}

func TestCompressDecompress(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", bytes.Repeat([]byte("the sigma facade round trip "), 64)},
		{"runs", bytes.Repeat([]byte{0x00}, 4096)},
		{"binary", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compress(tt.data)
			require.NoError(t, err)
			require.True(t, out.Method.IsConcrete())
			require.Equal(t, uint64(len(tt.data)), out.OriginalSize)

			restored, err := Decompress(out)
			require.NoError(t, err)
			require.Equal(t, tt.data, restored)
		})
	}
}

func TestCompress_OptionError(t *testing.T) {
	_, err := Compress([]byte("data"), engine.WithMaxInputSize(-1))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCompressWith(t *testing.T) {
	data := bytes.Repeat([]byte("explicit method selection "), 128)

	for _, method := range []format.Method{
		format.MethodHuffman,
		format.MethodEntropyRun,
		format.MethodSemanticLZ,
		format.MethodSemanticDedupe,
	} {
		t.Run(method.String(), func(t *testing.T) {
			out, err := CompressWith(data, method)
			require.NoError(t, err)
			require.Equal(t, method, out.Method)

			restored, err := Decompress(out)
			require.NoError(t, err)
			require.Equal(t, data, restored)
		})
	}

	_, err := CompressWith(data, format.Method(0x9))
	require.ErrorIs(t, err, errs.ErrUnknownMethod)
}

func TestCompressWith_SharedStore(t *testing.T) {
	store := compress.NewDedupeStore()
	data := bytes.Repeat([]byte("shared store dedupe block padding out to something real "), 128)

	first, err := CompressWith(data, format.MethodSemanticDedupe,
		engine.WithSharedDedupeStore(store),
		engine.WithDedupeBlockSize(512),
		engine.WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)
	require.Positive(t, store.CachedEmbeddings())

	second, err := CompressWith(data, format.MethodSemanticDedupe,
		engine.WithSharedDedupeStore(store),
		engine.WithDedupeBlockSize(512),
		engine.WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)
	require.Equal(t, first.Payload, second.Payload)

	restored, err := Decompress(second)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestMarshalUnmarshal(t *testing.T) {
	data := bytes.Repeat([]byte("container persistence cycle\n"), 256)

	out, err := Compress(data)
	require.NoError(t, err)

	buf, err := Marshal(out)
	require.NoError(t, err)

	parsed, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, out.Method, parsed.Method)
	require.Equal(t, out.OriginalSize, parsed.OriginalSize)
	require.Equal(t, out.Payload, parsed.Payload)

	restored, err := Decompress(parsed)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestUnmarshal_Corrupt(t *testing.T) {
	out, err := Compress(bytes.Repeat([]byte("damage me "), 64))
	require.NoError(t, err)

	buf, err := Marshal(out)
	require.NoError(t, err)

	buf[len(buf)-1] ^= 0x01
	_, err = Unmarshal(buf)
	require.ErrorIs(t, err, errs.ErrCorruptPayload)

	_, err = Unmarshal(buf[:10])
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}
