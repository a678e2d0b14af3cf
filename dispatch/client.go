package dispatch

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	simonmodbus "github.com/simonvetter/modbus"
)

// Client wraps a Modbus TCP connection to a single device. It hides the underlying modbus library
// and the lazy-reconnect dance required to recover from a dropped connection without tearing down
// and rebuilding the whole adapter above it.
type Client struct {
	host string

	subClient       *simonmodbus.ModbusClient
	shouldReconnect bool
	logger          *slog.Logger
}

func NewClient(host string) (*Client, error) {
	c := &Client{
		host:   host,
		logger: slog.Default().With("host", host),
	}

	if err := c.createSubClient(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) createSubClient() error {
	subClient, err := simonmodbus.NewClient(&simonmodbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s", c.host),
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create modbus client: %w", err)
	}

	if err := subClient.Open(); err != nil {
		return fmt.Errorf("open modbus client: %w", err)
	}

	c.subClient = subClient
	return nil
}

func (c *Client) setShouldReconnect() {
	c.shouldReconnect = true
}

func (c *Client) reconnectIfNecessary() error {
	if !c.shouldReconnect {
		return nil
	}

	c.subClient.Close() // ignore error, we are reconnecting regardless

	if err := c.createSubClient(); err != nil {
		return err
	}

	c.shouldReconnect = false
	c.logger.Info("reconnected modbus client")
	return nil
}

// PollBlock reads a single MetricBlock from the device and returns its metrics decoded and
// scaled, keyed by metric name.
func (c *Client) PollBlock(scaler Scaler, block MetricBlock) (map[string]interface{}, error) {
	if err := c.reconnectIfNecessary(); err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	regs, err := c.subClient.ReadRegisters(block.StartAddr, block.NumRegisters, simonmodbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read block %q: %w", block.Name, err)
	}

	raw := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(raw[i*2:], r)
	}

	metrics := make(map[string]interface{}, len(block.Metrics))
	for name, metric := range block.Metrics {
		offset := (int(metric.StartAddr) - int(block.StartAddr)) * 2
		if offset < 0 || offset+int(metric.DataType.dataLength) > len(raw) {
			return nil, fmt.Errorf("metric %q out of bounds for block %q", name, block.Name)
		}

		val := metric.DataType.fromBytesFunc(raw[offset : offset+int(metric.DataType.dataLength)])
		if metric.ScalingFunc != nil {
			val = metric.ScalingFunc(scaler, val)
		}
		metrics[name] = val
	}

	return metrics, nil
}

// WriteMetric writes val to the given metric's registers.
func (c *Client) WriteMetric(metric Metric, val interface{}) error {
	if err := c.reconnectIfNecessary(); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	raw := metric.DataType.toBytesFunc(val)
	regs := make([]uint16, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		regs = append(regs, binary.BigEndian.Uint16(raw[i:i+2]))
	}

	if err := c.subClient.WriteRegisters(metric.StartAddr, regs); err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write register %d: %w", metric.StartAddr, err)
	}

	return nil
}
