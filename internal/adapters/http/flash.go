package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const flashCookie = "flash"

// addFlash queues a notice for the next rendered page.
func addFlash(c echo.Context, secure bool, message string) {
	messages := peekFlashes(c)
	messages = append(messages, message)

	data, err := json.Marshal(messages)
	if err != nil {
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns queued notices and clears the cookie.
func popFlashes(c echo.Context) []string {
	messages := peekFlashes(c)
	if len(messages) == 0 {
		return nil
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return messages
}

func peekFlashes(c echo.Context) []string {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var messages []string
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}
