// SPDX-License-Identifier: MIT
//
// Package udp publishes the latest tuner reading as a compact binary
// datagram at a fixed interval.
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "tuner/internal/log"
	"tuner/internal/transport"
)

/*
Packet layout, big endian:

	| Field      | Type    | Bytes |
	|------------|---------|-------|
	| Sequence   | uint32  | 4     |
	| Timestamp  | int64   | 8     | nanoseconds since epoch
	| Measured   | float32 | 4     | Hz
	| Reference  | float32 | 4     | Hz
	| Offset     | float32 | 4     | meter position
	| Octave     | int16   | 2     |
	| Name size  | uint8   | 1     |
	| Name       | bytes   | n     |
*/

// headerSize is the packet size without the note name.
const headerSize = 4 + 8 + 4 + 4 + 4 + 2 + 1

// ErrShortPacket is returned by DecodePacket for truncated input.
var ErrShortPacket = errors.New("udp: short packet")

// Packet is the decoded form of one datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Measured  float32
	Reference float32
	Offset    float32
	Octave    int16
	Name      string
}

// UDPPublisher holds the latest reading and sends it on every tick. It
// implements transport.Transport so it can sit next to the websocket.
type UDPPublisher struct {
	sender   *UDPSender
	interval time.Duration

	mu       sync.Mutex
	latest   transport.Reading
	hasValue bool
	sequence uint32
	packet   bytes.Buffer

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewUDPPublisher starts publishing through sender. An interval of zero or
// less defaults to 100ms.
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	p := &UDPPublisher{
		sender:   sender,
		interval: interval,
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	applog.Infof("UDPPublisher: Publishing every %s", interval)
	return p, nil
}

func (p *UDPPublisher) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case now := <-ticker.C:
			p.publish(now)
		}
	}
}

// Send implements transport.Transport. Only transport.Reading values are
// kept; anything else is ignored.
func (p *UDPPublisher) Send(data any) error {
	r, ok := data.(transport.Reading)
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.latest = r
	p.hasValue = true
	p.mu.Unlock()
	return nil
}

func (p *UDPPublisher) publish(now time.Time) {
	p.mu.Lock()
	if !p.hasValue {
		p.mu.Unlock()
		return
	}
	p.sequence++
	encodePacket(&p.packet, p.sequence, now, p.latest)
	err := p.sender.Send(p.packet.Bytes())
	seq, size := p.sequence, p.packet.Len()
	p.mu.Unlock()

	if err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", seq, size)
	}
}

func encodePacket(buf *bytes.Buffer, seq uint32, now time.Time, r transport.Reading) {
	name := r.Note
	if len(name) > 255 {
		name = name[:255]
	}

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[0:], seq)
	binary.BigEndian.PutUint64(hdr[4:], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(hdr[12:], float32bits(r.Measured))
	binary.BigEndian.PutUint32(hdr[16:], float32bits(r.Reference))
	binary.BigEndian.PutUint32(hdr[20:], float32bits(r.Offset))
	binary.BigEndian.PutUint16(hdr[24:], uint16(int16(r.Octave)))
	hdr[26] = uint8(len(name))

	buf.Reset()
	buf.Write(hdr[:])
	buf.WriteString(name)
}

func float32bits(v float64) uint32 { return math.Float32bits(float32(v)) }

// DecodePacket parses one datagram.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < headerSize {
		return Packet{}, ErrShortPacket
	}
	n := int(b[26])
	if len(b) < headerSize+n {
		return Packet{}, ErrShortPacket
	}

	var p Packet
	rd := bytes.NewReader(b[:headerSize-1])
	fields := []any{&p.Sequence, &p.Timestamp, &p.Measured, &p.Reference, &p.Offset, &p.Octave}
	for _, f := range fields {
		if err := binary.Read(rd, binary.BigEndian, f); err != nil {
			return Packet{}, fmt.Errorf("udp: decode: %w", err)
		}
	}
	p.Name = string(b[headerSize : headerSize+n])
	return p, nil
}

// Close stops publishing and closes the sender.
func (p *UDPPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		err = p.sender.Close()
	})
	return err
}

var _ transport.Transport = (*UDPPublisher)(nil)
