package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	ErrLogLevel = errors.New("logging level must be one of none, normal, debug")
	ErrLogMode  = errors.New("file logging mode must be append or overwrite")
	ErrLogDest  = errors.New("file logging requires a destination")
)

type LoggerConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Destination string `yaml:"destination,omitempty" toml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty" toml:"mode,omitempty"`
}

type LoggingConfig struct {
	ConsoleLogger LoggerConfig `yaml:"console" toml:"console"`
	FileLogger    LoggerConfig `yaml:"file" toml:"file"`
}

func validLevel(level string) bool {
	switch level {
	case "none", "normal", "debug":
		return true
	}
	return false
}

// Validate checks both logger sections.
func (conf LoggingConfig) Validate() error {
	if !validLevel(conf.ConsoleLogger.Level) {
		return fmt.Errorf("%w: console %q", ErrLogLevel, conf.ConsoleLogger.Level)
	}
	if !validLevel(conf.FileLogger.Level) {
		return fmt.Errorf("%w: file %q", ErrLogLevel, conf.FileLogger.Level)
	}
	switch conf.FileLogger.Mode {
	case "", "append", "overwrite":
	default:
		return fmt.Errorf("%w: got %q", ErrLogMode, conf.FileLogger.Mode)
	}
	if conf.FileLogger.Level != "none" && conf.FileLogger.Destination == "" {
		return ErrLogDest
	}
	return nil
}

// merge overlays the non-empty values of other.
func (conf LoggingConfig) merge(other LoggingConfig) LoggingConfig {
	overlay := func(dst *LoggerConfig, src LoggerConfig) {
		if src.Level != "" {
			dst.Level = src.Level
		}
		if src.Destination != "" {
			dst.Destination = src.Destination
		}
		if src.Mode != "" {
			dst.Mode = src.Mode
		}
	}
	overlay(&conf.ConsoleLogger, other.ConsoleLogger)
	overlay(&conf.FileLogger, other.FileLogger)
	return conf
}

// EnableColorOutput reports whether stream is attached to a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// Prepare returns the program logger. Informational messages go to stdout,
// errors to stderr, and everything at the configured level to the log file.
func (conf *LoggingConfig) Prepare(name string) (*zap.Logger, error) {
	consoleEncoderLP := zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout))
	consoleEncoderHP := newEncoder(consoleEncoderConfig(os.Stderr))

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := func(floor zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool {
			return floor <= lvl && lvl < zapcore.ErrorLevel
		}
	}

	var consoleCoreHP, consoleCoreLP zapcore.Core
	switch conf.ConsoleLogger.Level {
	case "normal":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), lowPriority(zapcore.InfoLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	case "debug":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), lowPriority(zapcore.DebugLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	default:
		consoleCoreLP = zapcore.NewNopCore()
		consoleCoreHP = zapcore.NewNopCore()
	}

	fileCore, err := conf.FileLogger.fileCore()
	if err != nil {
		return nil, err
	}

	return zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore)).Named(name), nil
}

func (fl LoggerConfig) fileCore() (zapcore.Core, error) {
	var level zapcore.Level
	switch fl.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "normal":
		level = zapcore.InfoLevel
	default:
		return zapcore.NewNopCore(), nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	if fl.Mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(fl.Destination, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to access file log destination (%s): %w", fl.Destination, err)
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zapcore.NewCore(enc, zapcore.Lock(f), zap.NewAtomicLevelAt(level)), nil
}

// consoleEnc drops wrapped error detail when printing errors to the console.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
