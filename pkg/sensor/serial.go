package sensor

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/capdance/pkg/pad"
)

// DefaultBaudRate is the baud rate of the sampling bridge.
const DefaultBaudRate = 115200

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial is a sensor bank behind a sampling bridge on a serial port.
//
// The host sends one command per line:
//
//	c,<pin>,<group>,<channel>   configure a channel
//	a,<pin>                     re-arm a channel
//
// The bridge answers with one "<pin>,<counter>" line per discharge. Only the
// newest unread counter per pin is kept.
type Serial struct {
	conn io.ReadWriteCloser

	mu      sync.RWMutex
	wmu     sync.Mutex
	pins    map[uint8]chan uint16
	done    chan struct{}
	closed  bool
	dropped uint64
}

// OpenSerial opens a serial port and starts reading counters from it.
func OpenSerial(port string, baudRate int) (*Serial, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return NewSerial(conn), nil
}

// NewSerial wraps an open connection to a sampling bridge.
func NewSerial(conn io.ReadWriteCloser) *Serial {
	s := &Serial{
		conn: conn,
		pins: make(map[uint8]chan uint16),
		done: make(chan struct{}),
	}
	go s.readCounters()
	return s
}

// Configure sends the channel configuration of sc to the bridge.
func (s *Serial) Configure(sc pad.SensorConfig) error {
	s.mu.Lock()
	if _, ok := s.pins[sc.Pin]; !ok {
		s.pins[sc.Pin] = make(chan uint16, 1)
	}
	s.mu.Unlock()

	return s.send(fmt.Sprintf("c,%d,%d,%d\n", sc.Pin, sc.Group, sc.Channel))
}

// Arm re-arms the channel of sc. A counter still queued from before is discarded.
func (s *Serial) Arm(sc pad.SensorConfig) error {
	ch, err := s.pin(sc.Pin)
	if err != nil {
		return err
	}
	select {
	case <-ch:
	default:
	}
	return s.send(fmt.Sprintf("a,%d\n", sc.Pin))
}

// Read blocks until the bridge reports a counter for sc, or the bank is closed.
func (s *Serial) Read(sc pad.SensorConfig) (uint16, error) {
	ch, err := s.pin(sc.Pin)
	if err != nil {
		return 0, err
	}
	select {
	case c := <-ch:
		return c, nil
	case <-s.done:
		return 0, ErrClosed
	}
}

// Close closes the port and unblocks pending reads.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Dropped returns how many counters were replaced before being read.
func (s *Serial) Dropped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

func (s *Serial) pin(pin uint8) (chan uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	ch, ok := s.pins[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not configured", pin)
	}
	return ch, nil
}

func (s *Serial) send(cmd string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if _, err := io.WriteString(s.conn, cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// readCounters reads lines from the bridge and hands counters to their pin.
func (s *Serial) readCounters() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sensor: panic in readCounters: %v", r)
		}
	}()

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pin, counter, err := parseLine(line)
		if err != nil {
			log.Printf("sensor: failed to parse line '%s': %v", line, err)
			continue
		}

		s.mu.Lock()
		ch, ok := s.pins[pin]
		if ok && !s.closed {
			select {
			case ch <- counter:
			default:
				// keep the newest counter
				select {
				case <-ch:
					s.dropped++
				default:
				}
				ch <- counter
			}
		}
		s.mu.Unlock()
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		select {
		case <-s.done:
		default:
			log.Printf("sensor: error reading from serial port: %v", err)
		}
	}
}

// parseLine parses "<pin>,<counter>".
func parseLine(line string) (uint8, uint16, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid line format: expected 2 comma-separated values, got %d", len(parts))
	}

	pin, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pin: %w", err)
	}

	counter, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid counter: %w", err)
	}
	if counter > Timeout {
		return 0, 0, fmt.Errorf("counter out of range: %d (max %d)", counter, Timeout)
	}

	return uint8(pin), uint16(counter), nil
}
