package logging

import (
	"log/slog"
)

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func SessionID(id string) slog.Attr {
	return slog.String("session", id)
}

func Username(username string) slog.Attr {
	return slog.String("user", username)
}

func RemoteAddr(addr string) slog.Attr {
	return slog.String("remoteAddr", addr)
}
