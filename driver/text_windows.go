//go:build windows

package driver

import (
	"encoding/binary"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// WChar is the platform wchar_t: a UTF-16 code unit.
type WChar = uint16

const wcharSize = 2

var wideEncoding encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func wcharAt(b []byte) WChar { return binary.LittleEndian.Uint16(b) }
func putWChar(b []byte, w WChar) { binary.LittleEndian.PutUint16(b, w) }
