package qs

import (
	"crypto/rand"

	//	base62 for random and header compatible strings
	"github.com/keybase/saltpack/encoding/basex"
	uuid "github.com/satori/go.uuid"
)

func RandNBytes(n uint) (randBytes []byte, err error) {
	randBytes = make([]byte, n)
	_, err = rand.Read(randBytes)
	return
}

func RandNBase62(n uint) (encodedRand string, err error) {
	randBuf, err := RandNBytes(n)
	if err != nil {
		return
	}
	encodedRand = basex.Base62StdEncoding.EncodeToString(randBuf)
	return
}

//	NewRequestID returns a random uuid used to correlate one dispatch in logs
//	and on the wire.
func NewRequestID() (id string, err error) {
	randBuf, err := RandNBytes(16)
	if err != nil {
		return
	}
	u, err := uuid.FromBytes(randBuf)
	if err != nil {
		return
	}
	id = u.String()
	return
}
