/*
Copyright (C) 2024-2026  gidrc contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/launix-de/gidrc/gid"
	"github.com/launix-de/gidrc/handle"
	"github.com/pierrec/lz4/v4"
)

// RecordSize is the fixed on-wire size of one Record: a bit-exact
// concatenation of two big-endian uint64 halves and a one-byte
// management tag. Nothing else belongs in this record - a transport
// wanting integrity or framing guarantees adds them at the parcel
// layer, above this codec, not inside it.
const RecordSize = 8 + 8 + 1

// managementUnmanaged and managementManaged are the only wire values
// this build writes or accepts. ManagedMoveCredit never appears on the
// wire: Save downgrades it to managementManaged carrying full credit,
// per the move-instead-of-halve semantics in handle.MoveGID.
const (
	managementUnmanaged uint8 = 0
	managementManaged   uint8 = 1
)

// Record is the fixed-size on-wire form of one handle.
type Record struct {
	MSB        uint64
	LSB        uint64
	Management uint8
}

// Identifier reassembles r's two halves into a gid.Identifier.
func (r Record) Identifier() gid.Identifier {
	return gid.Identifier{Msb: r.MSB, Lsb: r.LSB}
}

// Marshal renders r as RecordSize bytes.
func (r Record) Marshal() []byte {
	buf := make([]byte, RecordSize)
	binary.BigEndian.PutUint64(buf[0:8], r.MSB)
	binary.BigEndian.PutUint64(buf[8:16], r.LSB)
	buf[16] = r.Management
	return buf
}

// UnmarshalRecord parses RecordSize bytes back into a Record. It does
// not clear the lock bit or validate the management byte - that is
// Load's job, one layer up.
func UnmarshalRecord(data []byte) (Record, error) {
	if len(data) != RecordSize {
		return Record{}, fmt.Errorf("wire: record is %d bytes, want %d: %w", len(data), RecordSize, ErrTruncated)
	}
	return Record{
		MSB:        binary.BigEndian.Uint64(data[0:8]),
		LSB:        binary.BigEndian.Uint64(data[8:16]),
		Management: data[16],
	}, nil
}

// Load decodes a single wire record, clears the identifier's lock bit
// (an identifier must never arrive off the wire looking locked - the
// lock is a purely local, in-process signal), and maps the wire
// management byte back to a handle.ManagementType. It returns
// ErrVersionTooNew for any management byte this build does not
// recognize, e.g. one written by a later revision of this format.
func Load(data []byte) (gid.Identifier, handle.ManagementType, error) {
	rec, err := UnmarshalRecord(data)
	if err != nil {
		return gid.Invalid, handle.Unmanaged, err
	}
	id := rec.Identifier().StripLock()
	switch rec.Management {
	case managementUnmanaged:
		return id, handle.Unmanaged, nil
	case managementManaged:
		return id, handle.Managed, nil
	default:
		return gid.Invalid, handle.Unmanaged, fmt.Errorf("wire: management byte %d: %w", rec.Management, ErrVersionTooNew)
	}
}

// CompressionThreshold is the record count at which CompressRecords'
// caller should prefer the LZ4-framed form over the raw concatenation -
// below it the frame header overhead is not worth paying.
const CompressionThreshold = 32

// CompressRecords concatenates records and wraps them in a single LZ4
// frame, the same size-triggered-compression judgement call applied to
// large delta-column payloads elsewhere in this stack.
func CompressRecords(records []Record) ([]byte, error) {
	raw := make([]byte, 0, len(records)*RecordSize)
	for _, r := range records {
		raw = append(raw, r.Marshal()...)
	}
	var out bytes.Buffer
	zw := lz4.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("wire: lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("wire: lz4 compress: %w", err)
	}
	return out.Bytes(), nil
}

// DecompressRecords is CompressRecords' inverse.
func DecompressRecords(frame []byte) ([]Record, error) {
	zr := lz4.NewReader(bytes.NewReader(frame))
	var raw bytes.Buffer
	if _, err := raw.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("wire: lz4 decompress: %w", err)
	}
	buf := raw.Bytes()
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("wire: decompressed frame is %d bytes, not a multiple of %d: %w", len(buf), RecordSize, ErrTruncated)
	}
	out := make([]Record, 0, len(buf)/RecordSize)
	for off := 0; off < len(buf); off += RecordSize {
		rec, err := UnmarshalRecord(buf[off : off+RecordSize])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
