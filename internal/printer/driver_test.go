package printer

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPDriver_Send(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	d := &TCPDriver{DialTimeout: time.Second}
	p := model.PrinterInfo{Name: "dock-1", Connection: model.ConnectionWiFi, Address: ln.Addr().String()}
	require.NoError(t, d.Send(context.Background(), p, []byte("^XA^XZ")))

	select {
	case data := <-received:
		assert.Equal(t, "^XA^XZ", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("printer never received data")
	}
}

func TestTCPDriver_Unreachable(t *testing.T) {
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := dead.Addr().String()
	require.NoError(t, dead.Close())

	d := &TCPDriver{DialTimeout: 200 * time.Millisecond}
	err = d.Send(context.Background(), model.PrinterInfo{Name: "gone", Address: addr}, []byte("x"))
	assert.Error(t, err)
}

func TestDeviceDriver_Send(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	p := model.PrinterInfo{Name: "desk", Connection: model.ConnectionUSB, Address: path}
	require.NoError(t, DeviceDriver{}.Send(context.Background(), p, []byte("one")))
	require.NoError(t, DeviceDriver{}.Send(context.Background(), p, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(data))
}

func TestDeviceDriver_MissingDevice(t *testing.T) {
	p := model.PrinterInfo{Name: "desk", Address: filepath.Join(t.TempDir(), "absent")}
	assert.Error(t, DeviceDriver{}.Send(context.Background(), p, []byte("x")))
}

type recordingDriver struct{ calls []string }

func (r *recordingDriver) Send(_ context.Context, p model.PrinterInfo, _ []byte) error {
	r.calls = append(r.calls, p.Name)
	return nil
}

func TestRouter(t *testing.T) {
	network, device := &recordingDriver{}, &recordingDriver{}
	r := NewRouter(network, device)
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, model.PrinterInfo{Name: "w", Connection: model.ConnectionWiFi}, nil))
	require.NoError(t, r.Send(ctx, model.PrinterInfo{Name: "n", Connection: model.ConnectionNetwork}, nil))
	require.NoError(t, r.Send(ctx, model.PrinterInfo{Name: "u", Connection: model.ConnectionUSB}, nil))
	require.NoError(t, r.Send(ctx, model.PrinterInfo{Name: "b", Connection: model.ConnectionBluetooth}, nil))

	assert.Equal(t, []string{"w", "n"}, network.calls)
	assert.Equal(t, []string{"u", "b"}, device.calls)

	err := r.Send(ctx, model.PrinterInfo{Name: "x", Connection: "serial"}, nil)
	assert.ErrorIs(t, err, ErrNoDriver)
}
