package shell

import (
	"os"
	"regexp"
	"strings"
)

var reEnvVar = regexp.MustCompile(`\${([^}{]+)}`)

// ReplaceEnvVars support:
// - ${NAME} - value of env variable or unchanged text if variable not set
// - ${NAME:default} - value of env variable or default
func ReplaceEnvVars(b []byte) []byte {
	return reEnvVar.ReplaceAllFunc(b, func(match []byte) []byte {
		key := string(match[2 : len(match)-1])

		var def string
		var hasDef bool

		if i := strings.IndexByte(key, ':'); i > 0 {
			key, def = key[:i], key[i+1:]
			hasDef = true
		}

		if value, ok := os.LookupEnv(key); ok {
			return []byte(value)
		}

		if hasDef {
			return []byte(def)
		}

		return match
	})
}
