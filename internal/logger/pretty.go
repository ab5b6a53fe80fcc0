// internal/logger/pretty.go
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// PrettyEncoder creates a user-friendly console encoder
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(ColorCyan + "[DEBUG]" + ColorReset)
	case zapcore.InfoLevel:
		enc.AppendString(ColorGreen + "[INFO]" + ColorReset)
	case zapcore.WarnLevel:
		enc.AppendString(ColorYellow + "[WARN]" + ColorReset)
	case zapcore.ErrorLevel:
		enc.AppendString(ColorRed + "[ERROR]" + ColorReset)
	case zapcore.FatalLevel:
		enc.AppendString(ColorRed + ColorBold + "[FATAL]" + ColorReset)
	default:
		enc.AppendString("[" + level.CapitalString() + "]")
	}
}

// customTimeEncoder formats time in a readable way
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// FormatMessage превращает известные сообщения свапа в короткие строки для терминала.
func FormatMessage(msg string, fields []zapcore.Field) string {
	switch msg {
	case "Transaction sent":
		sig := extractField(fields, "signature")
		return fmt.Sprintf("%s📤 Transaction sent: %s%s", ColorYellow, shortenSignature(sig), ColorReset)

	case "Transaction confirmed":
		sig := extractField(fields, "signature")
		return fmt.Sprintf("%s✅ Transaction confirmed: %s%s", ColorGreen, shortenSignature(sig), ColorReset)

	case "Swap failed":
		stage := extractField(fields, "stage")
		reason := extractField(fields, "error")
		return fmt.Sprintf("%s❌ Swap failed at %s: %s%s", ColorRed, stage, reason, ColorReset)

	case "Priority fee estimated":
		fee := extractField(fields, "priority_fee")
		return fmt.Sprintf("%s⛽ Priority fee: %s micro-lamports/CU%s", ColorBlue, fee, ColorReset)

	case "Raydium DEX instance created":
		program := extractField(fields, "program_id")
		return fmt.Sprintf("%s⚡ Raydium AMM %s%s", ColorCyan, shortenAddress(program), ColorReset)

	default:
		return msg
	}
}

// extractField returns the string form of a field, or "" if absent.
func extractField(fields []zapcore.Field, key string) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		if field.Key != key {
			continue
		}
		field.AddTo(enc)
		if v, ok := enc.Fields[key]; ok {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

func shortenSignature(sig string) string {
	if len(sig) > 16 {
		return sig[:8] + "..." + sig[len(sig)-8:]
	}
	return sig
}

// FieldFilterCore переписывает сообщение через FormatMessage.
// Без keepFields поля отбрасываются, чтобы вывод оставался коротким.
type FieldFilterCore struct {
	core       zapcore.Core
	context    []zapcore.Field
	keepFields bool
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	ctx := make([]zapcore.Field, 0, len(c.context)+len(fields))
	ctx = append(ctx, c.context...)
	ctx = append(ctx, fields...)
	return &FieldFilterCore{core: c.core, context: ctx, keepFields: c.keepFields}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.context)+len(fields))
	all = append(all, c.context...)
	all = append(all, fields...)

	pretty := FormatMessage(entry.Message, all)
	if pretty != entry.Message {
		entry.Message = pretty
		return c.core.Write(entry, nil)
	}
	if !c.keepFields {
		return c.core.Write(entry, nil)
	}
	return c.core.Write(entry, all)
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}

// newPrettyCore собирает цветной консольный core.
func newPrettyCore(out zapcore.WriteSyncer, level zapcore.LevelEnabler, keepFields bool) zapcore.Core {
	return &FieldFilterCore{
		core:       zapcore.NewCore(PrettyEncoder(), out, level),
		keepFields: keepFields,
	}
}

