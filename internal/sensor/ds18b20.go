package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const w1Dir = "/sys/bus/w1/devices"

// DS18B20 reads one DS18B20 probe through the w1-therm sysfs interface.
type DS18B20 struct {
	slavePath string
}

// NewDS18B20 opens the probe with the given device id (e.g.
// "28-0316a2794bff"). An empty id enumerates the bus and takes the first
// DS18B20 family device found.
func NewDS18B20(deviceID string) (*DS18B20, error) {
	if deviceID == "" {
		matches, err := filepath.Glob(filepath.Join(w1Dir, "28-*"))
		if err != nil || len(matches) == 0 {
			return nil, fmt.Errorf("no DS18B20 on 1-wire bus under %s", w1Dir)
		}
		deviceID = filepath.Base(matches[0])
	}

	path := filepath.Join(w1Dir, deviceID, "w1_slave")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sensor %s: %w", deviceID, err)
	}
	return &DS18B20{slavePath: path}, nil
}

// ReadTemperature reads and parses one conversion.
func (d *DS18B20) ReadTemperature() (float64, error) {
	data, err := os.ReadFile(d.slavePath)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrUnavailable, d.slavePath, err)
	}
	return parseW1Slave(string(data))
}

// parseW1Slave extracts the temperature from a w1_slave payload:
//
//	4b 01 4b 46 7f ff 0c 10 d8 : crc=d8 YES
//	4b 01 4b 46 7f ff 0c 10 d8 t=20687
//
// A failed on-chip CRC ("NO" on the first line) invalidates the reading.
func parseW1Slave(data string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("%w: short w1_slave payload", ErrUnavailable)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, fmt.Errorf("%w: CRC check failed", ErrUnavailable)
	}

	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return 0, fmt.Errorf("%w: no temperature field", ErrUnavailable)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][idx+2:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad temperature field: %v", ErrUnavailable, err)
	}

	// 85000 is the DS18B20 power-on reset value: a read that races the
	// first conversion reports it, so treat it as no reading.
	if milli == 85000 {
		return 0, fmt.Errorf("%w: power-on reset value", ErrUnavailable)
	}
	return float64(milli) / 1000, nil
}
