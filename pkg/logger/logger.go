package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nombres de campo compartidos por todo el servicio, para poder filtrar un SKU o un pedido
// a lo largo de ledger, barrido, caché y notificaciones.
const (
	FieldService       = "service"
	FieldVersion       = "version"
	FieldEnv           = "env"
	FieldComponent     = "component"
	FieldSKU           = "sku"
	FieldLocation      = "location"
	FieldOrderID       = "order_id"
	FieldReservationID = "reservation_id"
	FieldOp            = "op"
)

// Config opciones para el logger.
type Config struct {
	Env     string // development -> consola legible; production -> JSON
	Level   string // trace, debug, info, warn, error
	Service string // por defecto "stock-ledger"
	Version string // versión de build; vacío = "dev"
	Output  io.Writer
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado. Cada línea lleva service, version y env.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	zl := zerolog.New(w).Level(parseLevel(cfg.Level)).With().
		Timestamp().
		Str(FieldService, orDefault(cfg.Service, "stock-ledger")).
		Str(FieldVersion, orDefault(cfg.Version, "dev")).
		Str(FieldEnv, orDefault(cfg.Env, "development")).
		Logger()

	// librerías que usan el logger global heredan los mismos campos
	log.Logger = zl

	return &Logger{zl: zl}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Component sublogger con el campo "component" fijo; es lo que reciben los servicios.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zl.With().Str(FieldComponent, name).Logger()
}

// Zerolog devuelve el logger interno para los adaptadores que piden un zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Item agrega sku y ubicación a un evento.
func Item(e *zerolog.Event, sku, location string) *zerolog.Event {
	return e.Str(FieldSKU, sku).Str(FieldLocation, location)
}
