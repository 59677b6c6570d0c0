package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coursegate/coursegate"
)

// SignatureHeader is the header carrying the provider's payload signature.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds how far a signed timestamp may drift from the
// receiver's clock before the delivery is treated as a replay.
const DefaultTolerance = 5 * time.Minute

// signedHeader is the parsed form of a Stripe-Signature header value:
// comma-separated k=v pairs carrying a unix timestamp and one or more
// v1 HMAC digests.
type signedHeader struct {
	timestamp  time.Time
	signatures [][]byte
}

func parseSignatureHeader(value string) (signedHeader, error) {
	var parsed signedHeader

	if value == "" {
		return parsed, fmt.Errorf("%w: missing %s header", coursegate.ErrInvalidSignature, SignatureHeader)
	}

	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return parsed, fmt.Errorf("%w: malformed header element %q", coursegate.ErrInvalidSignature, pair)
		}

		switch parts[0] {
		case "t":
			unix, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return parsed, fmt.Errorf("%w: invalid timestamp %q", coursegate.ErrInvalidSignature, parts[1])
			}
			parsed.timestamp = time.Unix(unix, 0)
		case "v1":
			sig, err := hex.DecodeString(parts[1])
			if err != nil {
				continue // ignore undecodable digests; another v1 may match
			}
			parsed.signatures = append(parsed.signatures, sig)
		default:
			// Unknown schemes (v0, future versions) are skipped.
		}
	}

	if parsed.timestamp.IsZero() {
		return parsed, fmt.Errorf("%w: no timestamp in header", coursegate.ErrInvalidSignature)
	}
	if len(parsed.signatures) == 0 {
		return parsed, fmt.Errorf("%w: no v1 signature in header", coursegate.ErrInvalidSignature)
	}

	return parsed, nil
}

// computeSignature produces the expected HMAC-SHA256 digest for a payload
// signed at t: HMAC(secret, "<unix>.<payload>").
func computeSignature(t time.Time, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", t.Unix())
	mac.Write(payload)
	return mac.Sum(nil)
}

// VerifySignature checks header against the raw payload under secret,
// rejecting signatures whose timestamp drifts outside tolerance of now.
// A single altered payload byte fails verification.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		drift := now.Sub(parsed.timestamp)
		if drift < 0 {
			drift = -drift
		}
		if drift > tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", coursegate.ErrInvalidSignature)
		}
	}

	expected := computeSignature(parsed.timestamp, payload, secret)
	for _, sig := range parsed.signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching v1 signature", coursegate.ErrInvalidSignature)
}

// Sign builds a Stripe-Signature header value for payload as the provider
// would. Exported for wiring local test harnesses and fixtures.
func Sign(payload []byte, secret string, t time.Time) string {
	sig := computeSignature(t, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(sig))
}
