package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// Config captures the session details and the node holding each motion channel.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	SecurityMode    string        `yaml:"security_mode"`
	SecurityPolicy  string        `yaml:"security_policy"`
	ApplicationName string        `yaml:"application_name"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	Nodes           NodeConfig    `yaml:"nodes"`
}

// NodeConfig maps each sample field to an OPC UA node id.
type NodeConfig struct {
	Ax        string `yaml:"ax"`
	Ay        string `yaml:"ay"`
	Gz        string `yaml:"gz"`
	Speed     string `yaml:"speed"`
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
}

func (n NodeConfig) ordered() []string {
	return []string{n.Ax, n.Ay, n.Gz, n.Speed, n.Latitude, n.Longitude}
}

var channelNames = []string{"ax", "ay", "gz", "speed", "latitude", "longitude"}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "DriveGuard Edge"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 2 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	for i, id := range c.Nodes.ordered() {
		if id == "" {
			return fmt.Errorf("nodes.%s is required", channelNames[i])
		}
		if _, err := ua.ParseNodeID(id); err != nil {
			return fmt.Errorf("nodes.%s: parse node id %q: %w", channelNames[i], id, err)
		}
	}
	return nil
}

// Source reads the six motion channels from an OPC UA server on every Next
// call. The session is opened lazily on the first read.
type Source struct {
	cfg     Config
	nodeIDs []*ua.NodeID
	now     func() time.Time

	// connect and release default to the client's own Connect and Close.
	connect func(ctx context.Context, c *opcua.Client) error
	release func(ctx context.Context, c *opcua.Client) error

	mu     sync.Mutex
	client *opcua.Client
}

func NewSource(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids := make([]*ua.NodeID, 0, len(channelNames))
	for _, raw := range cfg.Nodes.ordered() {
		id, err := ua.ParseNodeID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return &Source{
		cfg:     cfg,
		nodeIDs: ids,
		now:     time.Now,
		connect: func(ctx context.Context, c *opcua.Client) error { return c.Connect(ctx) },
		release: func(ctx context.Context, c *opcua.Client) error { return c.Close(ctx) },
	}, nil
}

func (s *Source) Next(ctx context.Context) (domain.Sample, error) {
	client, err := s.session(ctx)
	if err != nil {
		return domain.Sample{}, err
	}

	req := &ua.ReadRequest{
		MaxAge:             0,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead:        make([]*ua.ReadValueID, len(s.nodeIDs)),
	}
	for i, id := range s.nodeIDs {
		req.NodesToRead[i] = &ua.ReadValueID{NodeID: id, AttributeID: ua.AttributeIDValue}
	}

	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	resp, err := client.Read(readCtx, req)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("opcua read: %w", err)
	}
	return s.toSample(resp.Results)
}

func (s *Source) toSample(results []*ua.DataValue) (domain.Sample, error) {
	if len(results) != len(channelNames) {
		return domain.Sample{}, fmt.Errorf("opcua read: expected %d results, got %d", len(channelNames), len(results))
	}

	vals := make([]float64, len(results))
	var ts time.Time
	for i, dv := range results {
		if dv == nil {
			return domain.Sample{}, fmt.Errorf("opcua read %s: empty result", channelNames[i])
		}
		if dv.Status != ua.StatusOK {
			return domain.Sample{}, fmt.Errorf("opcua read %s: %s", channelNames[i], dv.Status)
		}
		fv, ok := variantToFloat(dv.Value)
		if !ok {
			return domain.Sample{}, fmt.Errorf("opcua read %s: unsupported type %T", channelNames[i], dv.Value)
		}
		vals[i] = fv
		if dv.SourceTimestamp.After(ts) {
			ts = dv.SourceTimestamp
		}
	}
	if ts.IsZero() {
		ts = s.now()
	}

	return domain.Sample{
		AxMS2:     vals[0],
		AyMS2:     vals[1],
		GzDPS:     vals[2],
		SpeedKmh:  vals[3],
		Latitude:  vals[4],
		Longitude: vals[5],
		Timestamp: domain.FormatTimestamp(ts),
	}, nil
}

func (s *Source) session(ctx context.Context) (*opcua.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	client, err := opcua.NewClient(s.cfg.Endpoint, s.buildClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := s.connect(ctx, client); err != nil {
		// a half-open client still holds its channel and monitor goroutines
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.release(closeCtx, client)
		return nil, fmt.Errorf("opcua connect: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.release(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Source) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(s.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(s.cfg.SecurityPolicy)),
		opcua.ApplicationName(s.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if s.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(s.cfg.Username, s.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}

var _ ports.SampleSource = (*Source)(nil)
