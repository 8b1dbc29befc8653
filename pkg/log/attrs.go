package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func SessionID[T ~string](id T) slog.Attr {
	return slog.String("session_id", string(id))
}

func Origin(origin string) slog.Attr {
	return slog.String("origin", origin)
}

func URL(url string) slog.Attr {
	return slog.String("url", url)
}

func Index(i int) slog.Attr {
	return slog.Int("index", i)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
