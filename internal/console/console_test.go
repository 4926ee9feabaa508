package console

import (
	"errors"
	"io"
	"testing"
)

type fakePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	written []byte
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{r: r, w: w}
}

func (f *fakePort) Read(p []byte) (int, error)  { return f.r.Read(p) }
func (f *fakePort) Write(p []byte) (int, error) { f.written = append(f.written, p...); return len(p), nil }
func (f *fakePort) Close() error                { return f.r.Close() }

func TestConsoleDeliversCleanedOutput(t *testing.T) {
	port := newFakePort()
	c := New()
	c.open = func(name string, baud int) (io.ReadWriteCloser, error) {
		if name != "/dev/ttyACM0" || baud != 115200 {
			t.Fatalf("unexpected open %s@%d", name, baud)
		}
		return port, nil
	}

	if err := c.Connect("/dev/ttyACM0", 115200); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	cmd := c.Listen()
	go port.w.Write([]byte("DriveWire ready\r\n\x00>>> "))

	msg, ok := cmd().(OutputMsg)
	if !ok {
		t.Fatalf("expected OutputMsg, got %T", msg)
	}
	if msg.Text != "DriveWire ready\n.>>> " {
		t.Fatalf("unexpected text %q", msg.Text)
	}

	if err := c.Write([]byte{3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(port.written) != 1 || port.written[0] != 3 {
		t.Fatalf("expected ctrl-c written, got %v", port.written)
	}
}

func TestConsoleReportsReadError(t *testing.T) {
	port := newFakePort()
	c := New()
	c.open = func(string, int) (io.ReadWriteCloser, error) { return port, nil }
	if err := c.Connect("COM3", 9600); err != nil {
		t.Fatal(err)
	}

	cmd := c.Listen()
	port.w.CloseWithError(errors.New("device unplugged"))

	msg, ok := cmd().(ClosedMsg)
	if !ok || msg.Err == nil {
		t.Fatalf("expected ClosedMsg with error, got %#v", msg)
	}
}

func TestWriteWhenDisconnected(t *testing.T) {
	c := New()
	if err := c.Write([]byte("x")); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected ErrClosedPipe, got %v", err)
	}
	if c.Listen() != nil {
		t.Fatal("expected no listen command before connecting")
	}
}

func TestFindPico(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2e8a", PID: "0005"},
	}
	p, ok := FindPico(ports)
	if !ok || p.Name != "/dev/ttyACM0" {
		t.Fatalf("expected pico port, got %+v %v", p, ok)
	}
	if _, ok := FindPico(ports[:1]); ok {
		t.Fatal("expected no pico among non-USB ports")
	}
}
