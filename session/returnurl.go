package session

import "net/url"

// paymentParam is the query parameter the checkout success redirect adds.
const paymentParam = "payment"

// DetectPaymentReturn inspects a post-redirect URL for the checkout
// success marker. It returns whether the marker was present and the URL
// with the marker stripped, ready to replace the visible address so a
// reload does not re-trigger the banner.
func DetectPaymentReturn(raw string) (success bool, cleaned string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return false, raw, err
	}

	q := u.Query()
	if q.Get(paymentParam) != "success" {
		return false, raw, nil
	}

	q.Del(paymentParam)
	u.RawQuery = q.Encode()
	return true, u.String(), nil
}
