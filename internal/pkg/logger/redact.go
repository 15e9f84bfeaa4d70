package logger

import "strings"

// RedactEmail masks the local part of an address, keeping the first two
// characters when there are more than two: "john.doe@example.com" becomes
// "jo***@example.com". Anything that is not a single-@ address becomes
// "***@***".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
