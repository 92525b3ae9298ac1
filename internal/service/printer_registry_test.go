//go:build !integration

package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelPrinter(name string, conn model.ConnectionType, status model.PrinterStatus) model.PrinterInfo {
	return model.PrinterInfo{
		Name:                  name,
		Connection:            conn,
		Status:                status,
		SupportsLabelPrinting: true,
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestPrinterRegistry_MergeAndSnapshot(t *testing.T) {
	r := NewPrinterRegistry()
	r.Merge(model.PrinterDetectionResult{
		DetectionMethodsUsed: []string{printer.MethodUSB, printer.MethodWiFi},
		Printers: []model.PrinterInfo{
			labelPrinter("zebra-b", model.ConnectionWiFi, model.PrinterOnline),
			labelPrinter("zebra-a", model.ConnectionUSB, model.PrinterOnline),
			labelPrinter("zebra-b", model.ConnectionWiFi, model.PrinterOffline),
		},
	})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "zebra-a", snap[0].Name)
	assert.Equal(t, "zebra-b", snap[1].Name)
	assert.Equal(t, model.PrinterOffline, snap[1].Status, "last entry wins")
	assert.False(t, snap[0].LastSeen.IsZero())

	// Snapshots are copies.
	snap[0].Status = model.PrinterOffline
	p, err := r.Get("zebra-a")
	require.NoError(t, err)
	assert.Equal(t, model.PrinterOnline, p.Status)
}

func TestPrinterRegistry_MergeMarksVanishedOffline(t *testing.T) {
	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("usb-1", model.ConnectionUSB, model.PrinterOnline))
	r.Upsert(labelPrinter("bt-1", model.ConnectionBluetooth, model.PrinterOnline))
	r.Upsert(labelPrinter("manual", model.ConnectionNetwork, model.PrinterOnline))

	r.Merge(model.PrinterDetectionResult{
		DetectionMethodsUsed: []string{printer.MethodUSB, printer.MethodBluetooth},
		Errors:               map[string]string{printer.MethodBluetooth: "adapter busy"},
	})

	usb, _ := r.Get("usb-1")
	bt, _ := r.Get("bt-1")
	manual, _ := r.Get("manual")
	assert.Equal(t, model.PrinterOffline, usb.Status)
	assert.Equal(t, model.PrinterOnline, bt.Status, "failed probe does not prove absence")
	assert.Equal(t, model.PrinterOnline, manual.Status, "channel was not probed")
}

func TestPrinterRegistry_Reserve(t *testing.T) {
	dims := model.DefaultDimensions()

	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("online", model.ConnectionUSB, model.PrinterOnline))
	r.Upsert(labelPrinter("offline", model.ConnectionUSB, model.PrinterOffline))
	narrow := labelPrinter("narrow", model.ConnectionUSB, model.PrinterOnline)
	narrow.MaxWidthInches = floatPtr(2)
	r.Upsert(narrow)
	office := labelPrinter("office", model.ConnectionNetwork, model.PrinterOnline)
	office.SupportsLabelPrinting = false
	r.Upsert(office)

	tests := []struct {
		name    string
		printer string
		wantErr error
	}{
		{name: "unknown printer", printer: "ghost", wantErr: ErrPrinterNotFound},
		{name: "offline printer", printer: "offline", wantErr: ErrPrinterUnavailable},
		{name: "too narrow", printer: "narrow", wantErr: ErrPrinterIncompatible},
		{name: "no label support", printer: "office", wantErr: ErrPrinterIncompatible},
		{name: "idle printer", printer: "online"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Reserve(tt.printer, "job-1", dims)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.PrinterBusy, p.Status)
			assert.Equal(t, "job-1", p.ActiveJobID)
		})
	}

	t.Run("second job is rejected", func(t *testing.T) {
		_, err := r.Reserve("online", "job-2", dims)
		assert.ErrorIs(t, err, ErrPrinterBusy)
	})

	t.Run("same job reserves again", func(t *testing.T) {
		_, err := r.Reserve("online", "job-1", dims)
		assert.NoError(t, err)
	})

	t.Run("release requires the holder", func(t *testing.T) {
		assert.False(t, r.Release("online", "job-2"))
		assert.True(t, r.Release("online", "job-1"))
		p, _ := r.Get("online")
		assert.Equal(t, model.PrinterOnline, p.Status)
		assert.Empty(t, p.ActiveJobID)
	})
}

func TestPrinterRegistry_ReservationSurvivesDetection(t *testing.T) {
	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("zebra", model.ConnectionUSB, model.PrinterOnline))
	_, err := r.Reserve("zebra", "job-1", model.DefaultDimensions())
	require.NoError(t, err)

	r.Merge(model.PrinterDetectionResult{
		DetectionMethodsUsed: []string{printer.MethodUSB},
		Printers:             []model.PrinterInfo{labelPrinter("zebra", model.ConnectionUSB, model.PrinterOnline)},
	})

	p, _ := r.Get("zebra")
	assert.Equal(t, model.PrinterBusy, p.Status)
	assert.Equal(t, "job-1", p.ActiveJobID)
}

func TestPrinterRegistry_ReserveFirst(t *testing.T) {
	dims := model.DefaultDimensions()
	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("c", model.ConnectionUSB, model.PrinterOnline))
	r.Upsert(labelPrinter("b", model.ConnectionUSB, model.PrinterOnline))
	r.Upsert(labelPrinter("a", model.ConnectionUSB, model.PrinterOffline))

	p, ok := r.ReserveFirst("job-1", dims)
	require.True(t, ok)
	assert.Equal(t, "b", p.Name)

	p, ok = r.ReserveFirst("job-2", dims)
	require.True(t, ok)
	assert.Equal(t, "c", p.Name)

	_, ok = r.ReserveFirst("job-3", dims)
	assert.False(t, ok)
	assert.Equal(t, 2, r.CapableOnline(dims))
}

func TestPrinterRegistry_CheckCapable(t *testing.T) {
	dims := model.DefaultDimensions()
	narrow := labelPrinter("narrow", model.ConnectionUSB, model.PrinterOnline)
	narrow.MaxWidthInches = floatPtr(2)
	office := labelPrinter("office", model.ConnectionNetwork, model.PrinterOnline)
	office.SupportsLabelPrinting = false

	tests := []struct {
		name     string
		printers []model.PrinterInfo
		wantErr  error
	}{
		{name: "nothing detected yet", printers: nil},
		{name: "capable but offline", printers: []model.PrinterInfo{narrow, labelPrinter("zebra", model.ConnectionUSB, model.PrinterOffline)}},
		{name: "none fits", printers: []model.PrinterInfo{narrow, office}, wantErr: ErrPrinterIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registryWith(tt.printers...)
			err := r.CheckCapable(dims)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPrinterRegistry_ConcurrentReserve(t *testing.T) {
	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("zebra", model.ConnectionUSB, model.PrinterOnline))

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Reserve("zebra", fmt.Sprintf("job-%d", i), model.DefaultDimensions())
			if err == nil {
				winners.Add(1)
			} else {
				assert.True(t, errors.Is(err, ErrPrinterBusy))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestPrinterRegistry_SetStatusFiresHooks(t *testing.T) {
	r := NewPrinterRegistry()
	r.Upsert(labelPrinter("zebra", model.ConnectionUSB, model.PrinterOffline))

	var seen []model.PrinterStatus
	r.OnChange(func(prev, cur model.PrinterInfo) {
		seen = append(seen, cur.Status)
	})

	p, err := r.SetStatus("zebra", model.PrinterOnline)
	require.NoError(t, err)
	assert.Equal(t, model.PrinterOnline, p.Status)

	_, err = r.SetStatus("zebra", model.PrinterOnline)
	require.NoError(t, err)

	_, err = r.SetStatus("ghost", model.PrinterOnline)
	assert.ErrorIs(t, err, ErrPrinterNotFound)

	assert.Equal(t, []model.PrinterStatus{model.PrinterOnline}, seen, "unchanged status does not fire")
}
