package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Форматы, в которых сервис отдает timestamptz и timestamp колонки
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

var zoneless atomic.Pointer[time.Location]

// SetLocation задает зону для значений без смещения (колонки timestamp); по умолчанию UTC
func SetLocation(loc *time.Location) {
	zoneless.Store(loc)
}

func Location() *time.Location {
	if loc := zoneless.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// ParseTimestamp разбирает время без зоны в Location()
func ParseTimestamp(s string) (Timestamp, error) {
	return ParseTimestampIn(s, Location())
}

func ParseTimestampIn(s string, loc *time.Location) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("неизвестный формат времени: %q", s)
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}
