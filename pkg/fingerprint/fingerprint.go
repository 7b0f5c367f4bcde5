package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
)

// Fingerprint is the (IP, User-Agent) pair used to recognise a client.
type Fingerprint struct {
	IP        string
	UserAgent string
}

// Func derives a Fingerprint from a request.
type Func func(r *http.Request) Fingerprint

// Generate builds a fingerprint from the TCP peer address and the
// User-Agent header.
func Generate(r *http.Request) Fingerprint {
	return Fingerprint{
		IP:        clientip.RemoteIP(r),
		UserAgent: r.UserAgent(),
	}
}

// WithResolver returns a Func that takes the address from res, e.g. a
// resolver trusting proxy headers.
func WithResolver(res *clientip.Resolver) Func {
	return func(r *http.Request) Fingerprint {
		return Fingerprint{
			IP:        res.IP(r),
			UserAgent: r.UserAgent(),
		}
	}
}

// Equal compares both components in constant time.
func (f Fingerprint) Equal(other Fingerprint) bool {
	ip := subtle.ConstantTimeCompare([]byte(f.IP), []byte(other.IP))
	ua := subtle.ConstantTimeCompare([]byte(f.UserAgent), []byte(other.UserAgent))
	return ip&ua == 1
}

// Digest returns a 32-character hex digest, safe to log.
func (f Fingerprint) Digest() string {
	hash := sha256.Sum256([]byte(f.IP + "|" + f.UserAgent))
	return hex.EncodeToString(hash[:16])
}
