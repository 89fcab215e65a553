package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Damage is a non-negative damage figure. Decoding never fails: anything
// that is not a usable number becomes 0.
type Damage int64

var damageSeparators = strings.NewReplacer(",", "", "_", "", " ", "", "'", "")

func ParseDamage(s string) Damage {
	s = damageSeparators.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return clampDamage(v)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f >= math.MaxInt64 {
			return Damage(math.MaxInt64)
		}
		return clampDamage(int64(f))
	}
	return 0
}

func clampDamage(v int64) Damage {
	if v < 0 {
		return 0
	}
	return Damage(v)
}

func (d *Damage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*d = 0
			return nil
		}
		*d = ParseDamage(s)
		return nil
	}
	*d = ParseDamage(string(data))
	return nil
}

// Add sums two damage figures, saturating at MaxInt64.
func (d Damage) Add(o Damage) Damage {
	if o > 0 && d > math.MaxInt64-o {
		return Damage(math.MaxInt64)
	}
	return d + o
}

func (d Damage) Int64() int64 {
	return int64(d)
}
