package engine

import (
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/compress"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/hash"
	"github.com/iamthegreatdestroyer/sigma-compress/section"
)

// Metadata reports what the encoder observed about the input. It lives in
// memory only and is not serialized into the container.
type Metadata struct {
	// EntropyBits is the input's Shannon entropy in bits per byte. It is
	// filled under automatic selection, which profiles the input anyway,
	// and left zero for explicit method requests.
	EntropyBits float64
	// BlockCount is the number of dedupe blocks (dedupe method only).
	BlockCount int
	// DedupeHits is the number of exact block repeats (dedupe method only).
	DedupeHits int
	// SemanticHits is the number of similarity deltas (dedupe method only).
	SemanticHits int
}

// CompressedOutput is the result of one Compress call: the encoded payload
// plus everything needed to reverse it. MarshalBinary serializes it into
// the self-describing container format; a round-trip through
// MarshalBinary/UnmarshalBinary needs no state beyond the bytes.
type CompressedOutput struct {
	// Params is the method parameter block the decoder needs.
	Params compress.Params
	// Payload is the encoded data.
	Payload []byte
	// OriginalSize is the exact input length in bytes.
	OriginalSize uint64
	// Checksum is the xxHash64 of Payload.
	Checksum uint64
	// Ratio is OriginalSize divided by payload length. Degenerate cases
	// (empty input or empty payload) report 1.0, so it is always positive.
	Ratio float64
	// Method is the concrete method that produced Payload.
	Method format.Method
	// Metadata carries in-memory observations about the encode pass.
	Metadata Metadata
}

// MarshalBinary serializes the output into a container: fixed header,
// method parameter block, payload.
func (o *CompressedOutput) MarshalBinary() ([]byte, error) {
	if o.Params == nil {
		return nil, fmt.Errorf("%w: nil params", errs.ErrInvalidInput)
	}
	if o.Params.Method() != o.Method {
		return nil, fmt.Errorf("%w: %s params on %s container",
			errs.ErrInvalidInput, o.Params.Method(), o.Method)
	}

	paramBlock, err := o.Params.AppendBinary(nil)
	if err != nil {
		return nil, err
	}
	if uint64(len(paramBlock)) > section.MaxParamLen {
		return nil, fmt.Errorf("%w: parameter block %d bytes", errs.ErrInvalidInput, len(paramBlock))
	}
	if uint64(len(o.Payload)) > section.MaxPayloadLen {
		return nil, fmt.Errorf("%w: payload %d bytes", errs.ErrInvalidInput, len(o.Payload))
	}

	header := section.NewHeader(o.Method, o.OriginalSize)
	header.PayloadChecksum = o.Checksum
	header.ParamLen = uint32(len(paramBlock))
	header.PayloadLen = uint32(len(o.Payload))

	buf := make([]byte, 0, section.HeaderSize+len(paramBlock)+len(o.Payload))
	buf = header.AppendTo(buf)
	buf = append(buf, paramBlock...)
	buf = append(buf, o.Payload...)

	return buf, nil
}

// UnmarshalBinary parses a container produced by MarshalBinary. The
// payload checksum is verified here, before any decoding is attempted;
// structural violations return errors in the errs.ErrCorruptPayload
// family and leave the receiver unchanged.
func (o *CompressedOutput) UnmarshalBinary(data []byte) error {
	header, err := section.ParseHeader(data)
	if err != nil {
		return err
	}

	rest := data[section.HeaderSize:]
	need := uint64(header.ParamLen) + uint64(header.PayloadLen)
	if uint64(len(rest)) < need {
		return fmt.Errorf("%w: container is %d bytes short",
			errs.ErrTruncatedPayload, need-uint64(len(rest)))
	}
	if uint64(len(rest)) > need {
		return fmt.Errorf("%w: %d extra container bytes",
			errs.ErrTrailingData, uint64(len(rest))-need)
	}

	paramBlock := rest[:header.ParamLen]
	payload := rest[header.ParamLen:]

	if sum := hash.Sum64(payload); sum != header.PayloadChecksum {
		return fmt.Errorf("%w: got 0x%016x, want 0x%016x",
			errs.ErrChecksumMismatch, sum, header.PayloadChecksum)
	}

	params, err := compress.ParseParams(header.Method, paramBlock)
	if err != nil {
		return err
	}

	o.Method = header.Method
	o.OriginalSize = header.OriginalSize
	o.Params = params
	o.Payload = append([]byte(nil), payload...)
	o.Checksum = header.PayloadChecksum
	o.Ratio = ratio(header.OriginalSize, len(payload))
	o.Metadata = Metadata{}

	return nil
}

// ratio divides the original size by the payload length, pinning the
// degenerate cases to 1.0 so the result is always positive.
func ratio(originalSize uint64, payloadLen int) float64 {
	if originalSize == 0 || payloadLen == 0 {
		return 1.0
	}

	return float64(originalSize) / float64(payloadLen)
}
