package respond

import "regexp"

var (
	// bearer tokens and bare JWTs
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/=-]+`)
	jwtPattern    = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// user:password@ in connection strings
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// token= or password= query parameters
	secretParamPattern = regexp.MustCompile(`(?i)((?:token|password|secret)=)[^&\s]+`)
)

// SanitizeError returns err's message with credentials masked, for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = jwtPattern.ReplaceAllString(msg, "****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = secretParamPattern.ReplaceAllString(msg, "$1****")
	return msg
}
