package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"camhub/internal/camera"
)

// MockDevice はMockDriverが保持するデバイス
type MockDevice struct {
	Name     string
	Formats  []camera.Format
	Controls []camera.Control

	// Values はコントロールIDごとの現在値（未設定ならデフォルト値で初期化）
	Values map[uint64]int64

	// FailWrites に登録したIDへの書き込みはそのエラーで失敗する
	FailWrites map[uint64]error

	// InfoErr を設定するとデバイスを開けない扱いになる
	InfoErr error
}

// MockWrite は書き込み試行の記録
type MockWrite struct {
	Device string
	ID     uint64
	Value  int64
}

// MockDriver はテスト用のDriver実装
type MockDriver struct {
	mu      sync.Mutex
	devices map[string]*MockDevice
	writes  []MockWrite
}

// NewMockDriver は新しいMockDriverを作成する
func NewMockDriver() *MockDriver {
	return &MockDriver{
		devices: make(map[string]*MockDevice),
	}
}

// AddDevice はテスト用にデバイスを追加する
func (m *MockDriver) AddDevice(path string, device *MockDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if device.Values == nil {
		device.Values = make(map[uint64]int64)
	}
	for _, control := range device.Controls {
		if _, ok := device.Values[control.ID]; !ok {
			device.Values[control.ID] = control.Configuration.DefaultValue()
		}
	}

	m.devices[path] = device
}

// RemoveDevice はテスト用にデバイスを削除する
func (m *MockDriver) RemoveDevice(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, path)
}

// Writes はこれまでの書き込み試行を返す（失敗したものも含む）
func (m *MockDriver) Writes() []MockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]MockWrite, len(m.writes))
	copy(result, m.writes)
	return result
}

// ResetWrites は書き込み記録を消去する
func (m *MockDriver) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

// Devices はデバイスパスをデバイス番号順に返す
func (m *MockDriver) Devices(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]string, 0, len(m.devices))
	for path := range m.devices {
		devices = append(devices, path)
	}
	sort.Slice(devices, func(i, j int) bool {
		ni, nj := extractDeviceNumber(devices[i]), extractDeviceNumber(devices[j])
		if ni != nj {
			return ni < nj
		}
		return devices[i] < devices[j]
	})
	return devices, nil
}

// Info はモックデバイス情報を返す
func (m *MockDriver) Info(_ context.Context, device string) (*DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.device(device)
	if err != nil {
		return nil, err
	}
	if d.InfoErr != nil {
		return nil, d.InfoErr
	}
	return &DeviceInfo{Device: device, Name: d.Name, Driver: "mock"}, nil
}

// Formats はモックフォーマットを返す
func (m *MockDriver) Formats(_ context.Context, device string) ([]camera.Format, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.device(device)
	if err != nil {
		return nil, err
	}
	result := make([]camera.Format, len(d.Formats))
	copy(result, d.Formats)
	return result, nil
}

// Controls はモックコントロールのコピーを返す
func (m *MockDriver) Controls(_ context.Context, device string) ([]camera.Control, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.device(device)
	if err != nil {
		return nil, err
	}
	result := make([]camera.Control, len(d.Controls))
	copy(result, d.Controls)
	return result, nil
}

// ControlValue はモックの現在値を返す
func (m *MockDriver) ControlValue(_ context.Context, device string, id uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.device(device)
	if err != nil {
		return 0, err
	}
	value, ok := d.Values[id]
	if !ok {
		return 0, fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, device)
	}
	return value, nil
}

// SetControl は書き込みを記録し、FailWritesに従って失敗させる
func (m *MockDriver) SetControl(_ context.Context, device string, id uint64, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.device(device)
	if err != nil {
		return err
	}
	if _, ok := camera.FindControlByID(d.Controls, id); !ok {
		return fmt.Errorf("%w: id %d (%s)", camera.ErrControlNotFound, id, device)
	}

	m.writes = append(m.writes, MockWrite{Device: device, ID: id, Value: value})
	if err := d.FailWrites[id]; err != nil {
		return err
	}

	d.Values[id] = value
	return nil
}

// device はロック済み前提でデバイスを取得する
func (m *MockDriver) device(path string) (*MockDevice, error) {
	d, ok := m.devices[path]
	if !ok {
		return nil, fmt.Errorf("デバイスが見つかりません: %s", path)
	}
	return d, nil
}
