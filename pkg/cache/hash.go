package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash returns the hex SHA-256 of data. File cache entries are named by the
// hash of their key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// screenshotKey lays out a screenshot key as
// "screenshot:<format>:<max side>:<fingerprint>". Canvas fingerprints are
// content hashes already and go in verbatim, which keeps keys readable in
// redis-cli. An unset max side is written as 0.
func screenshotKey(fingerprint string, opts ScreenshotKeyOpts) string {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "svg"
	}
	return strings.Join([]string{"screenshot", format, strconv.Itoa(max(opts.MaxSide, 0)), fingerprint}, ":")
}
