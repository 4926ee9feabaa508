// Package console reads the bridge's USB serial console, where the
// firmware prints its boot and REPL output.
package console

import (
	"bytes"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.bug.st/serial"
)

// OutputMsg carries text read from the console.
type OutputMsg struct {
	Text string
}

// ClosedMsg is sent once the read loop stops.
type ClosedMsg struct {
	Err error
}

type opener func(name string, baud int) (io.ReadWriteCloser, error)

func openSerial(name string, baud int) (io.ReadWriteCloser, error) {
	return serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

// Console manages one serial console connection.
type Console struct {
	open     opener
	port     io.ReadWriteCloser
	portName string
	baudRate int
	mu       sync.Mutex
	running  bool
	dataCh   chan string
	done     chan struct{}
	err      error
}

func New() *Console {
	return &Console{open: openSerial}
}

// Connect opens portName, closing any previous connection first.
func (c *Console) Connect(portName string, baudRate int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.disconnectLocked()
	}

	port, err := c.open(portName, baudRate)
	if err != nil {
		return err
	}

	c.port = port
	c.portName = portName
	c.baudRate = baudRate
	c.running = true
	c.err = nil
	c.dataCh = make(chan string, 64)
	c.done = make(chan struct{})

	go c.readLoop(port, c.dataCh, c.done)
	return nil
}

func (c *Console) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

func (c *Console) disconnectLocked() {
	if !c.running {
		return
	}
	c.running = false
	if c.port != nil {
		c.port.Close()
	}
	close(c.done)
}

// Write sends data to the console, e.g. a Ctrl-C to interrupt the REPL.
func (c *Console) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return io.ErrClosedPipe
	}
	_, err := c.port.Write(data)
	return err
}

func (c *Console) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// PortName returns the port of the current or last connection.
func (c *Console) PortName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.portName
}

// Listen waits for the next chunk of console output.
func (c *Console) Listen() tea.Cmd {
	c.mu.Lock()
	ch := c.dataCh
	c.mu.Unlock()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			return ClosedMsg{Err: err}
		}
		return OutputMsg{Text: text}
	}
}

func (c *Console) readLoop(port io.Reader, out chan<- string, done <-chan struct{}) {
	defer close(out)
	buf := make([]byte, 1024)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := port.Read(buf)
		if n > 0 {
			select {
			case out <- clean(buf[:n]):
			case <-done:
				return
			default:
				// Drop data if channel is full
			}
		}
		if err != nil {
			c.mu.Lock()
			if c.running {
				c.err = err
			}
			c.mu.Unlock()
			return
		}
	}
}

// clean normalises line endings and replaces unprintable bytes with '.'.
func clean(b []byte) string {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch {
		case c == '\n' || c == '\t':
			out = append(out, c)
		case c == '\r':
		case c >= 32 && c <= 126:
			out = append(out, c)
		default:
			out = append(out, '.')
		}
	}
	return string(out)
}
