package qs

import (
	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("1.4.0")

const CLIENT_VERSION_HEADER = "X-QS-Client-Version"
const SERVER_VERSION_HEADER = "X-QS-Server-Version"
const REQUEST_ID_HEADER = "X-Request-Id"

//	ParseServerVersion reads the version a server advertises in its response
//	headers. ok is false when the header is missing or malformed.
func ParseServerVersion(header string) (version semver.Version, ok bool) {
	if header == "" {
		return
	}
	version, err := semver.ParseTolerant(header)
	if err != nil {
		return
	}
	ok = true
	return
}
