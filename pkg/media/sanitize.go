package media

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// fallbackName is used when nothing usable is left of the URL
const fallbackName = "media"

// maxNameBytes keeps a name plus extension, collision suffix and ".part"
// under the common 255-byte file name limit.
const maxNameBytes = 200

// hashLen is the number of hex digits of the URL digest kept on long names
const hashLen = 12

var forbidden = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "/", "", `\`, "", "|", "", "?", "", "*", "",
)

// SanitizeFilename derives a file name from the last '/'-separated segment of
// rawURL, dropping characters that are not allowed in file names on common
// filesystems. The query string is kept (minus the '?'), so distinct signed
// URLs for the same object map to distinct names. Names longer than
// maxNameBytes are cut and suffixed with a digest of the whole URL.
func SanitizeFilename(rawURL string) string {
	segment := rawURL
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		segment = rawURL[i+1:]
	}

	name := forbidden.Replace(segment)
	if name == "" || name == "." || name == ".." {
		return fallbackName
	}
	if len(name) > maxNameBytes {
		name = truncateName(name, rawURL)
	}
	return name
}

func truncateName(name, rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	digest := hex.EncodeToString(sum[:])[:hashLen]

	cut := maxNameBytes - hashLen - 1
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut] + "_" + digest
}
