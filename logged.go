package canbridge

import (
	"go.uber.org/zap"
)

// LogOption is a bitmask selecting which transport operations to log.
type LogOption uint8

const (
	LogNone LogOption = 0
	LogRead LogOption = 1 << iota
	LogWrite
	LogOptions
	LogAll = LogRead | LogWrite | LogOptions
)

// NewLoggedTransport wraps a transport and logs selected operations at
// debug level, errors at error level. Useful for host-connectivity
// debugging without touching the bridge itself.
func NewLoggedTransport(inner Transport, logger *zap.Logger, opts LogOption) Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggedTransport{inner: inner, logger: logger, opts: opts}
}

type loggedTransport struct {
	inner  Transport
	logger *zap.Logger
	opts   LogOption
}

func (l *loggedTransport) Read(buf []byte) (int, error) {
	n, err := l.inner.Read(buf)
	if l.opts&LogRead == 0 {
		return n, err
	}
	if err != nil {
		l.logger.Error("transport read", zap.Error(err))
	} else if n > 0 {
		l.logger.Debug("transport read", frameFields(buf[:n])...)
	}
	return n, err
}

func (l *loggedTransport) Write(buf []byte) (int, error) {
	if l.opts&LogWrite != 0 {
		l.logger.Debug("transport write", frameFields(buf)...)
	}
	n, err := l.inner.Write(buf)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Error("transport write", zap.Error(err))
	}
	return n, err
}

func (l *loggedTransport) WaitReady() (bool, error) {
	return l.inner.WaitReady()
}

func (l *loggedTransport) SetOption(level, name int, value []byte) error {
	err := l.inner.SetOption(level, name, value)
	if l.opts&LogOptions != 0 {
		if err != nil {
			l.logger.Error("transport option",
				zap.Int("level", level), zap.Int("name", name), zap.Error(err))
		} else {
			l.logger.Debug("transport option",
				zap.Int("level", level), zap.Int("name", name),
				zap.Int("len", len(value)))
		}
	}
	return err
}

func (l *loggedTransport) Close() error {
	return l.inner.Close()
}

// frameFields decodes buf as a wire frame for logging. Undecodable
// payloads fall back to a length field.
func frameFields(buf []byte) []zap.Field {
	var f WireFrame
	if err := f.UnmarshalBinary(buf); err != nil {
		return []zap.Field{zap.Int("len", len(buf))}
	}
	s := ToStack(f)
	return []zap.Field{
		zap.Uint32("id", s.ID),
		zap.Bool("extended", s.Extended),
		zap.Bool("rtr", s.RTR),
		zap.Uint8("dlc", s.DLC),
		zap.Binary("data", s.Data[:s.DLC]),
	}
}
