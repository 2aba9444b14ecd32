// services/hal/internal/service/service.go
package service

import (
	"context"
	"errors"
	"time"

	"dhtcode-go/bus"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/consts"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/registry"
	"dhtcode-go/services/hal/internal/util"
	"dhtcode-go/services/hal/internal/worker"

	"dhtcode-go/types"
)

type devEntry struct {
	adaptor   halcore.Adaptor
	caps      map[string]int // kind -> numeric capability id
	workerKey string
}

type capKey struct {
	kind string
	id   int
}

type Service struct {
	conn *bus.Connection
	pins halcore.PinFactory
	irq  halcore.IRQMasker

	workers map[string]*worker.MeasureWorker // workerKey -> worker
	results chan halcore.Result

	devices  map[string]devEntry
	keyOwner map[string]string // workerKey -> devID

	capToDev  map[capKey]string // (kind,id) -> devID
	nextCapID map[string]int

	devPeriod  map[string]time.Duration
	devNextDue map[string]time.Time

	timer *time.Timer
}

var (
	topicConfigHAL = bus.Topic{consts.TokConfig, consts.TokHAL}
	topicCtrl      = bus.Topic{consts.TokHAL, consts.TokCapability, "+", "+", consts.TokControl, "+"}
	topicState     = bus.Topic{consts.TokHAL, consts.TokState}
)

func New(conn *bus.Connection, pins halcore.PinFactory, irq halcore.IRQMasker) *Service {
	return &Service{
		conn:       conn,
		pins:       pins,
		irq:        irq,
		workers:    map[string]*worker.MeasureWorker{},
		results:    make(chan halcore.Result, 16),
		devices:    map[string]devEntry{},
		keyOwner:   map[string]string{},
		capToDev:   map[capKey]string{},
		nextCapID:  map[string]int{},
		devPeriod:  map[string]time.Duration{},
		devNextDue: map[string]time.Time{},
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigHAL)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		util.DrainTimer(s.timer)
	}

	for {
		if next := s.earliestDevDue(); next.IsZero() {
			util.ResetTimer(s.timer, time.Hour)
		} else {
			util.ResetTimer(s.timer, time.Until(next))
		}

		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.HALConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_wrong_type", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-s.timer.C:
			now := time.Now()
			for devID, due := range s.devNextDue {
				if !now.Before(due) {
					s.submitMeasure(devID, false)
					s.bumpDevNext(devID, now)
				}
			}

		case r := <-s.results:
			s.handleResult(r)
		}
	}
}

func (s *Service) handleControl(msg *bus.Message) {
	if len(msg.Topic) < 6 {
		return
	}
	kind, _ := msg.Topic[2].(string)
	idNum, ok := asInt(msg.Topic[3])
	if !ok || kind == "" {
		s.replyErr(msg, errcode.InvalidTopic)
		return
	}
	devID, ok := s.capToDev[capKey{kind: kind, id: idNum}]
	if !ok {
		s.replyErr(msg, errcode.UnknownCapability)
		return
	}
	method, _ := msg.Topic[5].(string)

	switch method {
	case consts.CtrlReadNow:
		if s.submitMeasure(devID, true) {
			s.bumpDevNext(devID, time.Now())
			s.conn.Reply(msg, types.ReadNowAck{OK: true}, false)
		} else {
			s.replyErr(msg, errcode.Busy)
		}

	case consts.CtrlSetRate:
		var p types.SetRate
		if err := util.DecodeJSON(msg.Payload, &p); err != nil || p.Period <= 0 {
			s.replyErr(msg, errcode.InvalidPeriod)
			return
		}
		s.devPeriod[devID] = util.ClampPeriod(p.Period)
		s.bumpDevNext(devID, time.Now())
		s.conn.Reply(msg, types.SetRateAck{OK: true, Period: s.devPeriod[devID]}, false)

	default:
		ent := s.devices[devID]
		res, err := ent.adaptor.Control(kind, method, msg.Payload)
		switch {
		case err == nil:
			s.conn.Reply(msg, res, false)
		case errors.Is(err, halcore.ErrUnsupported):
			s.replyErr(msg, errcode.Unsupported)
		default:
			s.replyErr(msg, errcode.Of(err))
		}
	}
}

// applyConfig builds devices that are new in cfg and removes those that are
// no longer listed. A device that fails to build is skipped; the first such
// failure is returned after the rest of the config has been applied.
func (s *Service) applyConfig(ctx context.Context, cfg types.HALConfig) error {
	seen := map[string]struct{}{}
	var firstErr error
	fail := func(id string, err error) {
		if firstErr == nil {
			firstErr = &errcode.E{C: errcode.Of(err), Op: id, Err: err}
		}
	}

	// Tidy-up first so a pin released by a removed device can be reused.
	for i := range cfg.Devices {
		seen[cfg.Devices[i].ID] = struct{}{}
	}
	for devID := range s.devices {
		if _, ok := seen[devID]; !ok {
			s.removeDevice(devID)
		}
	}

	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		if _, exists := s.devices[d.ID]; exists {
			continue
		}

		b, ok := registry.Lookup(d.Type)
		if !ok {
			fail(d.ID, errcode.Unsupported)
			continue
		}

		out, err := b.Build(registry.BuildInput{
			Ctx:        ctx,
			Pins:       s.pins,
			IRQ:        s.irq,
			DeviceID:   d.ID,
			Type:       d.Type,
			ParamsJSON: d.Params,
		})
		if err != nil {
			fail(d.ID, err)
			continue
		}
		if owner, taken := s.keyOwner[out.WorkerKey]; taken && out.WorkerKey != "" {
			fail(d.ID, &errcode.E{C: errcode.PinInUse, Msg: "held by " + owner})
			continue
		}

		if _, ok := s.workers[out.WorkerKey]; !ok {
			w := worker.New(halcore.WorkerConfig{}, s.results)
			w.Start(ctx)
			s.workers[out.WorkerKey] = w
		}
		if out.WorkerKey != "" {
			s.keyOwner[out.WorkerKey] = d.ID
		}

		ad := out.Adaptor
		entry := devEntry{adaptor: ad, workerKey: out.WorkerKey, caps: map[string]int{}}

		for _, ci := range ad.Capabilities() {
			id := s.nextCapID[ci.Kind]
			s.nextCapID[ci.Kind]++

			entry.caps[ci.Kind] = id
			s.capToDev[capKey{kind: ci.Kind, id: id}] = d.ID

			s.pubRet(ci.Kind, id, consts.TokInfo, ci.Info)
			s.pubRet(ci.Kind, id, consts.TokState, types.CapabilityState{Link: types.LinkUp, TS: time.Now()})
		}
		s.devices[d.ID] = entry

		if out.SampleEvery > 0 {
			s.devPeriod[d.ID] = util.ClampPeriod(out.SampleEvery)
			// First reading shortly after configuration.
			s.devNextDue[d.ID] = time.Now().Add(consts.MinPeriodMs * time.Millisecond)
		}
	}
	return firstErr
}

func (s *Service) removeDevice(devID string) {
	ent := s.devices[devID]
	for kind, id := range ent.caps {
		s.pubRet(kind, id, consts.TokInfo, nil)
		s.pubRet(kind, id, consts.TokState, types.CapabilityState{Link: types.LinkDown, TS: time.Now()})
		delete(s.capToDev, capKey{kind: kind, id: id})
	}
	if s.keyOwner[ent.workerKey] == devID {
		delete(s.keyOwner, ent.workerKey)
	}
	delete(s.devices, devID)
	delete(s.devPeriod, devID)
	delete(s.devNextDue, devID)
}

// ---- measurement helpers ----

func (s *Service) submitMeasure(devID string, prio bool) bool {
	ent, ok := s.devices[devID]
	if !ok {
		return false
	}
	w := s.workers[ent.workerKey]
	if w == nil {
		return false
	}
	return w.Submit(halcore.MeasureReq{ID: devID, Adaptor: ent.adaptor, Prio: prio})
}

func (s *Service) bumpDevNext(devID string, from time.Time) {
	period, ok := s.devPeriod[devID]
	if !ok {
		return
	}
	s.devNextDue[devID] = from.Add(period)
}

func (s *Service) earliestDevDue() time.Time {
	var min time.Time
	for _, t := range s.devNextDue {
		if !t.IsZero() && (min.IsZero() || t.Before(min)) {
			min = t
		}
	}
	return min
}

// ---- results ----

func (s *Service) handleResult(r halcore.Result) {
	ent, ok := s.devices[r.ID]
	if !ok {
		return
	}
	now := time.Now()

	if r.Err != nil {
		code := string(errcode.Of(r.Err))
		for kind, id := range ent.caps {
			s.pubRet(kind, id, consts.TokState, types.CapabilityState{
				Link:  types.LinkDegraded,
				TS:    now,
				Error: code,
			})
		}
		return
	}
	for _, rd := range r.Sample {
		id, ok := ent.caps[rd.Kind]
		if !ok {
			continue
		}
		s.conn.Publish(s.conn.NewMessage(capTopic(rd.Kind, id, consts.TokValue), rd.Payload, false))
		s.pubRet(rd.Kind, id, consts.TokState, types.CapabilityState{Link: types.LinkUp, TS: now})
	}
}

// ---- bus helpers & utils ----

func (s *Service) publishState(level, status string, err error) {
	pl := types.HALState{Level: level, Status: status, TS: time.Now()}
	if err != nil {
		pl.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, pl, true))
}

func (s *Service) replyErr(req *bus.Message, code errcode.Code) {
	if !req.CanReply() {
		return
	}
	if code == "" || code == errcode.OK {
		code = errcode.Error
	}
	s.conn.Reply(req, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func capTopic(kind string, id int, suffix string) bus.Topic {
	return bus.Topic{consts.TokHAL, consts.TokCapability, kind, id, suffix}
}

func (s *Service) pubRet(kind string, id int, suffix string, p any) {
	s.conn.Publish(s.conn.NewMessage(capTopic(kind, id, suffix), p, true))
}

func asInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
