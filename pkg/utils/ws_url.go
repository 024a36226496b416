package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildWebSocketURL turns the daemon base URL into the /ws endpoint for role.
func BuildWebSocketURL(baseURL, role string) string {
	wsURL := strings.Replace(baseURL, "https", "wss", 1)
	wsURL = strings.Replace(wsURL, "http", "ws", 1)
	return fmt.Sprintf("%s/ws?role=%s", strings.TrimRight(wsURL, "/"), url.QueryEscape(role))
}
