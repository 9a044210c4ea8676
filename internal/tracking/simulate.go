package tracking

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"

	"luxdrive/internal/models"
)

// CodePrefix starts every tracking code.
const CodePrefix = "LXD-"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// JitterDegrees bounds the simulated drift on each axis.
	JitterDegrees = 0.005
)

// NewCode returns a fresh tracking code such as LXD-7QK2M9ZD.
func NewCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return CodePrefix + string(buf), nil
}

// Jitter returns base moved by a uniform random offset in
// [-JitterDegrees, +JitterDegrees) on each axis.
func Jitter(base models.GPS) models.GPS {
	return models.GPS{
		Lat: base.Lat + (mrand.Float64()-0.5)*2*JitterDegrees,
		Lng: base.Lng + (mrand.Float64()-0.5)*2*JitterDegrees,
	}
}
