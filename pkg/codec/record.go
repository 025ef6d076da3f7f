package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// Record represents a key-value record with metadata for storage
type Record struct {
	CRC32     uint32 // CRC32 checksum for integrity
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes
	Timestamp uint64 // Unix timestamp in nanoseconds
	Key       []byte // Key data
	Value     []byte // Value data
}

// RecordCodec handles serialization and deserialization of records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a key-value pair into a binary record format
// Format: [CRC32(4)][KeySize(4)][ValueSize(4)][Timestamp(8)][Key][Value]
// This is the value-heap record format used by the string-value overlay
// (pkg/store/valueheap.go); it is distinct from the fixed-width node
// records described by NodeRecordSize/EncodeNode below.
func (c *RecordCodec) Encode(key, value []byte) ([]byte, error) {
	r := NewRecord(key, value)
	r.CRC32 = r.calculateCRC32()

	buf := make([]byte, r.Size())
	binary.LittleEndian.PutUint32(buf[0:4], r.CRC32)
	binary.LittleEndian.PutUint32(buf[4:8], r.KeySize)
	binary.LittleEndian.PutUint32(buf[8:12], r.ValueSize)
	binary.LittleEndian.PutUint64(buf[12:20], r.Timestamp)
	copy(buf[20:20+len(r.Key)], r.Key)
	copy(buf[20+len(r.Key):], r.Value)
	return buf, nil
}

// Decode deserializes a binary record into a Record struct. It checks
// only the lengths; call Validate to check the CRC32.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < 20 {
		return nil, fmt.Errorf("%w: record header truncated", ErrCorruption)
	}
	r := &Record{
		CRC32:     binary.LittleEndian.Uint32(data[0:4]),
		KeySize:   binary.LittleEndian.Uint32(data[4:8]),
		ValueSize: binary.LittleEndian.Uint32(data[8:12]),
		Timestamp: binary.LittleEndian.Uint64(data[12:20]),
	}
	end := 20 + int(r.KeySize) + int(r.ValueSize)
	if len(data) < end {
		return nil, fmt.Errorf("%w: record body truncated", ErrCorruption)
	}
	r.Key = append([]byte(nil), data[20:20+r.KeySize]...)
	r.Value = append([]byte(nil), data[20+r.KeySize:end]...)
	return r, nil
}

// Validate checks the integrity of a record using CRC32
func (r *Record) Validate() error {
	if r.calculateCRC32() != r.CRC32 {
		return fmt.Errorf("%w: CRC32 mismatch", ErrCorruption)
	}
	return nil
}

// Size returns the total size of the record when encoded
func (r *Record) Size() int {
	// Header: CRC32(4) + KeySize(4) + ValueSize(4) + Timestamp(8) = 20 bytes
	// Data: len(Key) + len(Value)
	return 20 + len(r.Key) + len(r.Value)
}

// NewRecord creates a new record with current timestamp
func NewRecord(key, value []byte) *Record {
	return &Record{
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Timestamp: uint64(time.Now().UnixNano()),
		Key:       key,
		Value:     value,
	}
}

// calculateCRC32 computes CRC32 checksum for record data (excluding the CRC field itself)
func (r *Record) calculateCRC32() uint32 {
	crc := crc32.NewIEEE()

	// Write header fields (excluding CRC32)
	binary.Write(crc, binary.LittleEndian, r.KeySize)
	binary.Write(crc, binary.LittleEndian, r.ValueSize)
	binary.Write(crc, binary.LittleEndian, r.Timestamp)

	// Write data
	crc.Write(r.Key)
	crc.Write(r.Value)

	return crc.Sum32()
}

// ErrCorruption is returned by the node/header codec below, and by
// Decode/Validate above, when a record's bytes cannot be trusted:
// bad magic, a length prefix past the record end, or a CRC mismatch.
var ErrCorruption = fmt.Errorf("codec: corrupt record")

// magic bytes identify the node and header record kinds on disk; a
// mismatch means the file was opened with the wrong codec or is not a
// tree file at all.
const (
	magicNode   byte = 0xB7
	magicHeader byte = 0xB9
)

// keyLenPrefixSize is the fixed width used to frame each key slot
// inside a node record. Two bytes bounds keys at 65535, far above any
// sane keylen, and keeps node record size a pure function of
// (nodesize, keylen).
const keyLenPrefixSize = 2

// NodeRecordSize returns R(S, keylen), the fixed byte length of every
// node record in a tree created with the given nodesize and keylen.
// It never changes for the lifetime of a file.
func NodeRecordSize(nodesize, keylen int) int {
	s := nodesize
	return 1 + 1 + 2 + (s+1)*8 + s*(keyLenPrefixSize+keylen)
}

// EncodeNode serializes (flag, validkeys, indices, keys) into a
// record of exactly size bytes, right-padded with zero filler. It
// fails if the natural encoding would not fit size.
func EncodeNode(size int, flag byte, validkeys int16, indices []int64, keys [][]byte, keylen int) ([]byte, error) {
	nodesize := len(indices) - 1
	if len(keys) != nodesize {
		return nil, fmt.Errorf("codec: keys length %d does not match nodesize %d", len(keys), nodesize)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, magicNode, flag)
	buf = binary.BigEndian.AppendUint16(buf, uint16(validkeys))
	for _, idx := range indices {
		buf = binary.BigEndian.AppendUint64(buf, uint64(idx))
	}
	for _, k := range keys {
		if len(k) > keylen {
			return nil, fmt.Errorf("codec: key length %d exceeds keylen %d", len(k), keylen)
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(k)))
		buf = append(buf, k...)
	}
	if len(buf) > size {
		return nil, fmt.Errorf("%w: encoded node is %d bytes, record size is %d", ErrCorruption, len(buf), size)
	}
	padded := make([]byte, size)
	copy(padded, buf)
	return padded, nil
}

// DecodeNode parses a record previously produced by EncodeNode.
// nodesize and keylen must match the values the tree was created
// with; they are not recoverable from the record itself.
func DecodeNode(data []byte, nodesize, keylen int) (flag byte, validkeys int16, indices []int64, keys [][]byte, err error) {
	if len(data) < 4 || data[0] != magicNode {
		return 0, 0, nil, nil, fmt.Errorf("%w: bad node magic", ErrCorruption)
	}
	flag = data[1]
	validkeys = int16(binary.BigEndian.Uint16(data[2:4]))
	off := 4
	indices = make([]int64, nodesize+1)
	for i := range indices {
		if off+8 > len(data) {
			return 0, 0, nil, nil, fmt.Errorf("%w: truncated indices", ErrCorruption)
		}
		indices[i] = int64(binary.BigEndian.Uint64(data[off : off+8]))
		off += 8
	}
	keys = make([][]byte, nodesize)
	for i := range keys {
		if off+keyLenPrefixSize > len(data) {
			return 0, 0, nil, nil, fmt.Errorf("%w: truncated key length", ErrCorruption)
		}
		klen := int(binary.BigEndian.Uint16(data[off : off+keyLenPrefixSize]))
		off += keyLenPrefixSize
		if klen > keylen || off+klen > len(data) {
			return 0, 0, nil, nil, fmt.Errorf("%w: invalid key length %d", ErrCorruption, klen)
		}
		k := make([]byte, klen)
		copy(k, data[off:off+klen])
		keys[i] = k
		off += klen
	}
	return flag, validkeys, indices, keys, nil
}

// HeaderRecordSize is the fixed size, in bytes, of an encoded tree header.
const HeaderRecordSize = 1 + 8*5

// EncodeHeader serializes the tree header tuple
// (length, keylen, nodesize, root_seek, free_seek).
func EncodeHeader(length, keylen, nodesize, rootSeek, freeSeek int64) []byte {
	buf := make([]byte, 0, HeaderRecordSize)
	buf = append(buf, magicHeader)
	buf = binary.BigEndian.AppendUint64(buf, uint64(length))
	buf = binary.BigEndian.AppendUint64(buf, uint64(keylen))
	buf = binary.BigEndian.AppendUint64(buf, uint64(nodesize))
	buf = binary.BigEndian.AppendUint64(buf, uint64(rootSeek))
	buf = binary.BigEndian.AppendUint64(buf, uint64(freeSeek))
	return buf
}

// DecodeHeader parses a record produced by EncodeHeader.
func DecodeHeader(data []byte) (length, keylen, nodesize, rootSeek, freeSeek int64, err error) {
	if len(data) < HeaderRecordSize || data[0] != magicHeader {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: bad header magic", ErrCorruption)
	}
	off := 1
	read := func() int64 {
		v := int64(binary.BigEndian.Uint64(data[off : off+8]))
		off += 8
		return v
	}
	length = read()
	keylen = read()
	nodesize = read()
	rootSeek = read()
	freeSeek = read()
	return
}

// PortableHash is the deterministic string hash used by the bucket
// hash overlay: h = 775 + len(s)*1001, then folded through
// h = h*253 + c*113 mod 8_320_631 for each byte of s.
func PortableHash(s []byte) uint32 {
	const modulus = 8_320_631
	h := 775 + len(s)*1001
	for _, c := range s {
		h = (h*253 + int(c)*113) % modulus
	}
	return uint32(h)
}

// EncodeBucketKey renders a portable hash as a fixed-width big-endian
// byte string of the given width (the bucket tree's keylen). width
// must be at least 4 to hold any value PortableHash can produce.
func EncodeBucketKey(hash uint32, width int) []byte {
	full := make([]byte, 4)
	binary.BigEndian.PutUint32(full, hash)
	if width >= 4 {
		out := make([]byte, width)
		copy(out[width-4:], full)
		return out
	}
	return full[4-width:]
}
