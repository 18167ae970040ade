package logger

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var secretInMessage = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|authorization)([=:]\s*)\S+`)

// SecurityLogger keeps credentials out of log output.
type SecurityLogger struct {
	*Logger
}

func NewSecurityLogger(l *Logger) *SecurityLogger {
	if l == nil {
		l = GetLogger()
	}
	return &SecurityLogger{Logger: l}
}

// MaskSecret renders a credential as its length plus a short digest, so two
// runs can be compared without revealing the value.
func (sl *SecurityLogger) MaskSecret(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return fmt.Sprintf("secret(len=%d)#%s", len(secret), sl.GenerateHash(secret))
}

// MaskEndpoint keeps the host of an API endpoint and drops path and query.
func (sl *SecurityLogger) MaskEndpoint(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "endpoint#" + sl.GenerateHash(rawURL)
	}
	return fmt.Sprintf("%s://%s/…", parsed.Scheme, parsed.Host)
}

// MaskSensitiveData masks values whose key names look like credentials.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for key, value := range data {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "key"),
			strings.Contains(lowerKey, "token"),
			strings.Contains(lowerKey, "secret"):
			masked[key] = sl.MaskSecret(fmt.Sprintf("%v", value))
		case strings.Contains(lowerKey, "endpoint"):
			if str, ok := value.(string); ok {
				masked[key] = sl.MaskEndpoint(str)
			} else {
				masked[key] = value
			}
		default:
			masked[key] = value
		}
	}
	return masked
}

func (sl *SecurityLogger) MaskLogMessage(message string) string {
	return secretInMessage.ReplaceAllString(message, "${1}${2}***")
}

// GenerateHash returns the first eight bytes of the SHA-256 digest as hex.
func (sl *SecurityLogger) GenerateHash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum[:8])
}

func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
}

func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Warn(sl.MaskLogMessage(msg))
}

func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	masked := sl.MaskSensitiveData(fields)
	if err != nil {
		masked["error"] = sl.MaskLogMessage(err.Error())
	}
	sl.Logger.WithFields(masked).Error(sl.MaskLogMessage(msg))
}
