// Package report writes one diagnostic line per HAL event to a console.
package report

import (
	"context"
	"io"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/types"
	"dhtcode-go/x/conv"
	"dhtcode-go/x/timex"
)

var (
	topicValues    = bus.T("hal", "capability", "+", "+", "value")
	topicCapStates = bus.T("hal", "capability", "+", "+", "state")
	topicHALState  = bus.T("hal", "state")
	topicConfig    = bus.T("config", "report")
)

// Config arrives on config/report.
type Config struct {
	// AliveEvery prints a liveness line at this period. Zero disables it.
	AliveEveryS int `json:"alive_every_s"`
}

type Service struct {
	w     io.Writer
	buf   []byte
	links map[types.CapabilityAddress]types.Link
	start int64
}

func New(w io.Writer) *Service {
	return &Service{w: w, buf: make([]byte, 0, 96), links: map[types.CapabilityAddress]types.Link{}}
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	vals := conn.Subscribe(topicValues)
	caps := conn.Subscribe(topicCapStates)
	hal := conn.Subscribe(topicHALState)
	cfg := conn.Subscribe(topicConfig)
	defer conn.Disconnect()

	s.start = timex.MonoMs()
	alive := time.NewTicker(time.Hour)
	alive.Stop()
	defer alive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-vals.Channel():
			s.value(m)
		case m := <-caps.Channel():
			s.capState(m)
		case m := <-hal.Channel():
			if st, ok := m.Payload.(types.HALState); ok {
				s.line("hal", -1, st.Level, st.Status, st.Error)
			}
		case m := <-cfg.Channel():
			if c, ok := decodeConfig(m.Payload); ok {
				if c.AliveEveryS > 0 {
					alive.Reset(time.Duration(c.AliveEveryS) * time.Second)
				} else {
					alive.Stop()
				}
			}
		case <-alive.C:
			s.alive()
		}
	}
}

func (s *Service) value(m *bus.Message) {
	ref, ok := refOf(m.Topic)
	if !ok {
		return
	}
	b := s.head(string(ref.Kind), ref.ID)
	switch v := m.Payload.(type) {
	case types.TemperatureValue:
		b = conv.AppendFixed(b, int64(v.DeciC), 1)
		b = append(b, " C"...)
	case types.HumidityValue:
		b = conv.AppendFixed(b, int64(v.RHx100/10), 1)
		b = append(b, " %RH"...)
	default:
		return
	}
	s.flush(b)
}

// capState reports link transitions only.
func (s *Service) capState(m *bus.Message) {
	ref, ok := refOf(m.Topic)
	if !ok {
		return
	}
	st, ok := m.Payload.(types.CapabilityState)
	if !ok {
		return
	}
	if prev, seen := s.links[ref]; seen && prev == st.Link && st.Link == types.LinkUp {
		return
	}
	s.links[ref] = st.Link
	s.line(string(ref.Kind), ref.ID, string(st.Link), st.Error)
}

func (s *Service) alive() {
	b := append(s.buf[:0], "[report] alive "...)
	b = conv.AppendInt(b, (timex.MonoMs()-s.start)/1000)
	b = append(b, 's')
	s.flush(b)
}

func (s *Service) line(kind string, id int, words ...string) {
	b := s.head(kind, id)
	first := true
	for _, w := range words {
		if w == "" {
			continue
		}
		if !first {
			b = append(b, ' ')
		}
		b = append(b, w...)
		first = false
	}
	s.flush(b)
}

func (s *Service) head(kind string, id int) []byte {
	b := append(s.buf[:0], "[report] "...)
	b = append(b, kind...)
	if id >= 0 {
		b = append(b, '/')
		b = conv.AppendInt(b, int64(id))
	}
	return append(b, ' ')
}

func (s *Service) flush(b []byte) {
	b = append(b, '\n')
	_, _ = s.w.Write(b)
	s.buf = b[:0]
}

func refOf(t bus.Topic) (types.CapabilityAddress, bool) {
	if t.Len() < 5 {
		return types.CapabilityAddress{}, false
	}
	kind, ok1 := t.At(2).(string)
	id, ok2 := t.At(3).(int)
	return types.CapabilityAddress{Kind: types.Kind(kind), ID: id}, ok1 && ok2
}

func decodeConfig(p any) (Config, bool) {
	switch v := p.(type) {
	case Config:
		return v, true
	case map[string]any:
		switch n := v["alive_every_s"].(type) {
		case float64:
			return Config{AliveEveryS: int(n)}, true
		case int:
			return Config{AliveEveryS: n}, true
		}
	}
	return Config{}, false
}
