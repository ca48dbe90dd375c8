//go:build !windows

package driver

import (
	"encoding/binary"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode/utf32"
)

// WChar is the platform wchar_t: a UTF-32 code unit.
type WChar = uint32

const wcharSize = 4

var wideEncoding encoding.Encoding = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)

func wcharAt(b []byte) WChar { return binary.LittleEndian.Uint32(b) }
func putWChar(b []byte, w WChar) { binary.LittleEndian.PutUint32(b, w) }
