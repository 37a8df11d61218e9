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

import "errors"

// ErrVersionTooNew is returned by Load when a record's management byte
// does not name any management discipline this build understands - the
// record was written by a newer build than this one.
var ErrVersionTooNew = errors.New("wire: record has unrecognized management byte")

// ErrTruncated is returned by UnmarshalRecord and Load when the input is
// not exactly RecordSize bytes long, and by DecompressRecords when the
// decompressed frame is not a whole number of records.
var ErrTruncated = errors.New("wire: truncated record")
