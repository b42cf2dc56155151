// Package bitstream provides MSB-first bit-level reading and writing on
// byte slices. It is the shared bit transport for the Huffman and match
// codecs: writers accumulate bits in a 64-bit buffer and flush to a pooled
// byte buffer, readers refill a 64-bit buffer from the source in 8-byte
// chunks.
//
// Bit order is big-endian within the stream: the first bit written becomes
// the most significant bit of the first byte. A partial final byte is
// zero-padded on the least significant side.
package bitstream

import (
	"encoding/binary"

	"github.com/iamthegreatdestroyer/sigma-compress/internal/pool"
)

// Writer provides efficient bit-level writing backed by a pooled byte buffer.
//
// Bits are accumulated in a 64-bit buffer and flushed to the byte buffer
// when full. Call Bytes() after all writes to flush the final partial byte;
// interleaving Bytes() with further writes corrupts the stream.
type Writer struct {
	bitBuf    uint64 // Bit buffer for accumulating bits before writing to byte buffer
	bitCount  int    // Number of valid bits in bitBuf
	totalBits int    // Total bits written since last Reset
	buf       *pool.ByteBuffer
}

// NewWriter creates a new bit writer backed by a pooled buffer.
//
// The caller must call Finish() to return the buffer to the pool once the
// encoded bytes have been copied out.
func NewWriter() *Writer {
	return &Writer{
		buf: pool.GetPayloadBuffer(),
	}
}

// WriteBit writes a single bit (0 or 1).
//
// This is a performance-critical function used by the codec hot loops.
// The bit is stored in the most significant position and shifted left
// as more bits are added, ensuring correct byte-order when flushed.
func (w *Writer) WriteBit(bit uint64) {
	if w.buf == nil {
		panic("bit writer already finished - cannot write after Finish()")
	}

	w.bitBuf = (w.bitBuf << 1) | bit
	w.bitCount++
	w.totalBits++

	if w.bitCount == 64 {
		w.flushBits()
	}
}

// WriteBits writes the least significant numBits of value, most significant
// bit first.
//
// This is a performance-critical function used extensively by the codecs.
// It efficiently handles writing 1-64 bits at once, automatically flushing
// the bit buffer to the byte buffer when necessary.
func (w *Writer) WriteBits(value uint64, numBits int) {
	if w.buf == nil {
		panic("bit writer already finished - cannot write after Finish()")
	}

	if numBits == 0 {
		return
	}

	// Mask value to only include the specified number of bits
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	w.totalBits += numBits

	// Calculate how many bits fit in current buffer
	available := 64 - w.bitCount

	if numBits <= available {
		// All bits fit in current buffer
		w.bitBuf = (w.bitBuf << numBits) | value
		w.bitCount += numBits

		if w.bitCount == 64 {
			w.flushBits()
		}
	} else {
		// Split across buffer boundary
		// Write high bits that fit in current buffer
		highBits := numBits - available
		w.bitBuf = (w.bitBuf << available) | (value >> highBits)
		w.bitCount = 64
		w.flushBits()

		// Write remaining low bits to new buffer
		w.bitBuf = value & ((1 << highBits) - 1)
		w.bitCount = highBits
	}
}

// BitLen returns the total number of bits written since the last Reset,
// including bits still pending in the bit buffer.
func (w *Writer) BitLen() int {
	return w.totalBits
}

// Bytes returns the encoded byte stream, flushing any pending bits first.
//
// The returned slice references the internal pooled buffer: it is valid
// until the next call to Reset or Finish, and the caller must not retain
// it past Finish().
func (w *Writer) Bytes() []byte {
	if w.buf == nil {
		panic("bit writer already finished - cannot access bytes after Finish()")
	}

	// Flush pending bits to ensure we return complete data
	// Note: flushBits() has a guard to prevent flushing when bitCount == 0
	if w.bitCount > 0 {
		w.flushBits()
	}

	return w.buf.Bytes()
}

// Reset clears all writer state, including accumulated bytes, for reuse.
func (w *Writer) Reset() {
	w.bitBuf = 0
	w.bitCount = 0
	w.totalBits = 0
	if w.buf != nil {
		w.buf.Reset()
	}
}

// Finish returns the byte buffer to the pool and makes the writer unusable.
//
// The caller must copy the result of Bytes() BEFORE calling Finish(), as
// the underlying buffer is recycled. Any subsequent write or Bytes() call
// panics.
func (w *Writer) Finish() {
	if w.buf == nil {
		return // Already finished
	}

	pool.PutPayloadBuffer(w.buf)
	w.buf = nil
}

// flushBits writes the current bit buffer to the byte buffer.
//
// This converts accumulated bits into bytes and appends them to the byte
// buffer. The bit buffer is organized as big-endian (most significant bits
// first).
func (w *Writer) flushBits() {
	if w.bitCount == 0 {
		return
	}

	// Calculate how many bytes we need
	numBytes := (w.bitCount + 7) / 8

	// Shift bits to align to byte boundary (left-align)
	alignedBits := w.bitBuf << (64 - w.bitCount)

	// Write bytes in big-endian order (most significant byte first)
	startLen := w.buf.Len()
	w.buf.ExtendOrGrow(numBytes)

	bs := w.buf.Slice(startLen, startLen+numBytes)

	// Fast path: use binary.BigEndian for 8-byte writes
	if numBytes == 8 {
		binary.BigEndian.PutUint64(bs, alignedBits)
	} else {
		// Slow path: write partial bytes
		for i := 0; i < numBytes; i++ {
			shift := 56 - (i * 8)
			bs[i] = byte(alignedBits >> shift)
		}
	}

	// Clear bit buffer
	w.bitBuf = 0
	w.bitCount = 0
}

// Reader provides efficient bit-level reading from a byte slice.
//
// This is a performance-critical component used by the codec decode paths.
// It maintains a buffer of bits and efficiently reads them as needed.
// The zero-value Reader is not usable; create one with NewReader.
type Reader struct {
	data     []byte // Source data
	bytePos  int    // Current byte position
	bitBuf   uint64 // Buffer holding current bits
	bitCount int    // Number of valid bits in buffer
}

// NewReader creates a new bit reader over data. The reader does not copy
// or modify the slice.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
	}
}

// ReadBit reads a single bit from the stream.
//
// Returns:
//   - The bit value (0 or 1) and true if successful
//   - Zero and false if no more data is available
func (r *Reader) ReadBit() (uint64, bool) {
	if r.bitCount == 0 {
		if !r.fillBuffer() {
			return 0, false
		}
	}

	// Extract most significant bit (already 0 or 1, no mask needed)
	bit := r.bitBuf >> 63
	r.bitBuf <<= 1
	r.bitCount--

	return bit, true
}

// ReadBits reads numBits bits from the stream, returned right-aligned.
//
// Returns:
//   - The bits as a uint64 and true if successful
//   - Zero and false if insufficient data is available
func (r *Reader) ReadBits(numBits int) (uint64, bool) {
	if numBits == 0 {
		return 0, true
	}

	if numBits <= r.bitCount {
		shift := 64 - numBits
		result := r.bitBuf >> shift
		r.bitBuf <<= numBits
		r.bitCount -= numBits

		return result, true
	}

	var result uint64
	firstRead := true

	for numBits > 0 {
		if r.bitCount == 0 {
			if !r.fillBuffer() {
				return 0, false
			}
		}

		// Determine how many bits we can read from current buffer
		bitsToRead := numBits
		if bitsToRead > r.bitCount {
			bitsToRead = r.bitCount
		}

		// Extract bits from most significant position
		shift := 64 - bitsToRead
		shiftedBits := r.bitBuf >> shift

		// Accumulate result
		if firstRead {
			result = shiftedBits
			firstRead = false
		} else {
			result = (result << bitsToRead) | shiftedBits
		}

		// Update buffer
		r.bitBuf <<= bitsToRead
		r.bitCount -= bitsToRead
		numBits -= bitsToRead
	}

	return result, true
}

// BitsConsumed returns the number of bits read from the stream so far.
func (r *Reader) BitsConsumed() int {
	return r.bytePos*8 - r.bitCount
}

// BytesConsumed returns the number of whole bytes covered by the bits read
// so far, rounding a trailing partial byte up.
func (r *Reader) BytesConsumed() int {
	return (r.BitsConsumed() + 7) / 8
}

// Remaining returns the number of unread bits left in the stream.
func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.BitsConsumed()
}

// fillBuffer refills the bit buffer from the byte stream.
//
// Reads up to 8 bytes and fills the 64-bit buffer for efficient bit
// extraction. The bits are left-aligned in the buffer for consistent
// extraction. This method is called automatically when the bit buffer
// is empty.
//
// Returns true if buffer was filled successfully, false if no more data.
//
// Performance optimization:
//   - Fast path: uses binary.BigEndian.Uint64 for 8-byte reads (compiler intrinsic)
//   - Slow path: byte-by-byte for partial reads
func (r *Reader) fillBuffer() bool {
	if r.bytePos >= len(r.data) {
		return false
	}

	// Read up to 8 bytes to fill the buffer
	bytesAvailable := len(r.data) - r.bytePos
	bytesToRead := 8
	if bytesToRead > bytesAvailable {
		bytesToRead = bytesAvailable
	}

	// Fast path: read full 8 bytes using binary.BigEndian
	if bytesToRead == 8 {
		r.bitBuf = binary.BigEndian.Uint64(r.data[r.bytePos : r.bytePos+8])
		r.bytePos += 8
		r.bitCount = 64

		return true
	}

	// Slow path: read partial bytes
	r.bitBuf = 0
	for i := 0; i < bytesToRead; i++ {
		r.bitBuf = (r.bitBuf << 8) | uint64(r.data[r.bytePos])
		r.bytePos++
	}

	// Left-align the bits if we read less than 8 bytes
	// This ensures consistent bit extraction from the MSB
	r.bitBuf <<= (8 - bytesToRead) * 8
	r.bitCount = bytesToRead * 8

	return true
}
