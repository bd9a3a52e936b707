package tables

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/agencyops/billaudit/pkg/errors"
)

// Byte order marks checked during encoding detection.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts raw export bytes to a UTF-8 string, auto-detecting the
// encoding: BOM-marked UTF-8/UTF-16, plain UTF-8, and a Windows-1252
// fallback for the Latin-1 style exports the CRM produces. The file label
// is used in error messages ("billing" or "crm").
func decode(file string, data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil

	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(file, "utf-16le", data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))

	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(file, "utf-16be", data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM))

	case utf8.Valid(data):
		return string(data), nil

	default:
		// Single byte encoding; every byte decodes, so this cannot fail.
		return decodeWith(file, "windows-1252", data, charmap.Windows1252)
	}
}

func decodeWith(file, charset string, data []byte, enc encoding.Encoding) (string, error) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", &errors.DecodeError{File: file, Charset: charset, Err: err}
	}
	return string(decoded), nil
}
