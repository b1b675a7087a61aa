package driver

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"
)

// builtinModules are declared in every session.
var builtinModules = map[string]func(*ModuleBuilder){
	"specjs/uuid":     uuidModule,
	"specjs/humanize": humanizeModule,
}

func (s *Session) declareBuiltinModules() {
	for name, builder := range builtinModules {
		s.DeclareModule(name, builder)
	}
}

// uuidModule exposes random UUIDs and validation.
func uuidModule(m *ModuleBuilder) {
	m.Const("NIL", uuid.Nil.String())
	m.Function("v4", func() string {
		return uuid.NewString()
	})
	m.Function("parse", func(s string) (string, error) {
		id, err := uuid.Parse(s)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	})
	m.Function("validate", func(s string) bool {
		return uuid.Validate(s) == nil
	})
}

// humanizeModule formats numbers and durations for people.
func humanizeModule(m *ModuleBuilder) {
	m.Function("bytes", func(n float64) string {
		if n < 0 {
			return "-" + humanize.Bytes(uint64(-n))
		}
		return humanize.Bytes(uint64(n))
	})
	m.Function("iBytes", func(n float64) string {
		return humanize.IBytes(uint64(max(n, 0)))
	})
	m.Function("comma", func(n float64) string {
		return humanize.Commaf(n)
	})
	m.Function("ordinal", func(n int) string {
		return humanize.Ordinal(n)
	})
	m.Function("plural", func(n int, singular, plural string) string {
		return english.Plural(n, singular, plural)
	})
	m.Function("relTime", func(ms float64) string {
		d := time.Duration(ms * float64(time.Millisecond))
		now := time.Now()
		return humanize.RelTime(now.Add(-d), now, "ago", "from now")
	})
}
