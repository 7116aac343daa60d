package payments

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
)

// CheckVKPaymentsSig validates the MD5 signature of a VK payments
// notification. Two concatenation variants are accepted because client
// builds historically produced either: the classic form joins the sorted
// key=value pairs with no separator, the documented form joins them with
// "&". The hex digest comparison is case-insensitive.
func CheckVKPaymentsSig(fields map[string]string, secret string) bool {
	sig := strings.ToLower(strings.TrimSpace(fields["sig"]))
	if sig == "" || secret == "" {
		return false
	}

	entries := sortedPairs(fields, "sig")
	if md5Hex(strings.Join(entries, "")+secret) == sig {
		return true
	}
	return md5Hex(strings.Join(entries, "&")+secret) == sig
}

// CheckOKSig validates the MD5 signature of an OK callbacks.payment
// request: sorted key=value pairs concatenated with no separator, secret
// appended. Single variant, case-insensitive hex compare.
func CheckOKSig(fields map[string]string, secret string) bool {
	sig := strings.ToLower(strings.TrimSpace(fields["sig"]))
	if sig == "" || secret == "" {
		return false
	}
	entries := sortedPairs(fields, "sig")
	return md5Hex(strings.Join(entries, "")+secret) == sig
}

// CheckVKLaunchSign validates the launch-params ("origin") signature that
// proves a request came from a page served inside the VK host. Only keys
// prefixed "vk_" participate; they are sorted, joined with "&", HMAC-SHA256
// signed and base64url-encoded without padding. Unlike the payments
// signature the comparison is exact: a single variant, case-sensitive.
func CheckVKLaunchSign(params map[string]string, secret string) bool {
	sign := params["sign"]
	if sign == "" || secret == "" {
		return false
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if strings.HasPrefix(k, "vk_") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return false
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sign))
}

func sortedPairs(fields map[string]string, skipKey string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == skipKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	return pairs
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
